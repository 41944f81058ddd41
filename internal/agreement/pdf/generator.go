// Package pdf generates rental agreement documents using maroto/v2. The
// document carries the parties, the tenancy period, the warm rent and a
// signature block; it is generated once per confirmed booking and stored
// in object storage.
package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary   = &props.Color{Red: 17, Green: 24, Blue: 39}
	colorSecondary = &props.Color{Red: 107, Green: 114, Blue: 128}
	colorAccent    = &props.Color{Red: 37, Green: 99, Blue: 235}
	colorBorder    = &props.Color{Red: 226, Green: 232, Blue: 240}
)

// AgreementData holds all data needed to generate a rental agreement PDF.
type AgreementData struct {
	BookingID  string
	ProformaID string

	PropertyName    string
	PropertyAddress string
	OwnerName       string

	GuestName  string
	GuestEmail string

	StartDate string
	EndDate   string

	// WarmRentCents is the monthly warm rent active at the start date.
	// Zero with RentConfigured false when no timeline row covers it.
	WarmRentCents  int64
	RentConfigured bool

	GeneratedAt time.Time
}

// GenerateAgreementPDF creates the rental agreement document.
func GenerateAgreementPDF(data AgreementData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(12).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRows(buildHeader(data)...)
	m.AddRows(row.New(1).WithStyle(&props.Cell{
		BorderType:  border.Bottom,
		BorderColor: colorBorder,
	}))
	m.AddRows(row.New(6))

	m.AddRows(buildPartiesBlock(data)...)
	m.AddRows(row.New(6))

	m.AddRows(buildTenancyBlock(data)...)
	m.AddRows(row.New(8))

	m.AddRows(buildTermsBlock()...)
	m.AddRows(row.New(12))

	m.AddRows(buildSignatureBlock()...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func buildHeader(data AgreementData) []core.Row {
	titleCol := col.New(8).Add(
		text.New("MIETVERTRAG", props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Color: colorAccent,
		}),
		text.New(fmt.Sprintf("Buchung %s", data.BookingID), props.Text{
			Size:  10,
			Color: colorSecondary,
			Top:   12,
		}),
	)
	dateCol := col.New(4).Add(
		text.New(data.GeneratedAt.Format("02.01.2006"), props.Text{
			Size:  10,
			Align: align.Right,
			Color: colorSecondary,
			Top:   4,
		}),
	)
	return []core.Row{row.New(20).Add(titleCol, dateCol)}
}

func buildPartiesBlock(data AgreementData) []core.Row {
	return []core.Row{
		row.New(6).Add(
			col.New(6).Add(text.New("Vermieter", props.Text{
				Size: 9, Style: fontstyle.Bold, Color: colorSecondary,
			})),
			col.New(6).Add(text.New("Mieter", props.Text{
				Size: 9, Style: fontstyle.Bold, Color: colorSecondary,
			})),
		),
		row.New(10).Add(
			col.New(6).Add(
				text.New(data.OwnerName, props.Text{Size: 11, Style: fontstyle.Bold, Color: colorPrimary}),
				text.New(data.PropertyAddress, props.Text{Size: 9, Color: colorSecondary, Top: 5}),
			),
			col.New(6).Add(
				text.New(data.GuestName, props.Text{Size: 11, Style: fontstyle.Bold, Color: colorPrimary}),
				text.New(data.GuestEmail, props.Text{Size: 9, Color: colorSecondary, Top: 5}),
			),
		),
	}
}

func buildTenancyBlock(data AgreementData) []core.Row {
	rent := "nach Vereinbarung"
	if data.RentConfigured {
		rent = fmt.Sprintf("EUR %.2f / Monat (warm)", float64(data.WarmRentCents)/100)
	}

	line := func(label, value string) core.Row {
		return row.New(7).Add(
			col.New(4).Add(text.New(label, props.Text{Size: 10, Color: colorSecondary})),
			col.New(8).Add(text.New(value, props.Text{Size: 10, Style: fontstyle.Bold, Color: colorPrimary})),
		)
	}

	return []core.Row{
		row.New(8).Add(col.New(12).Add(text.New("Mietverhältnis", props.Text{
			Size: 12, Style: fontstyle.Bold, Color: colorPrimary,
		}))),
		line("Mietobjekt", data.PropertyName),
		line("Adresse", data.PropertyAddress),
		line("Mietbeginn", data.StartDate),
		line("Mietende", data.EndDate),
		line("Miete", rent),
	}
}

func buildTermsBlock() []core.Row {
	terms := []string{
		"1. Das Mietobjekt wird im vertragsgemäßen Zustand übergeben. Zählerstände werden bei Ein- und Auszug protokolliert.",
		"2. Die Miete ist monatlich im Voraus fällig.",
		"3. Das Inventar laut Übergabeprotokoll ist Bestandteil des Mietvertrags.",
		"4. Änderungen und Ergänzungen bedürfen der Schriftform.",
	}

	rows := []core.Row{
		row.New(8).Add(col.New(12).Add(text.New("Vertragsbedingungen", props.Text{
			Size: 12, Style: fontstyle.Bold, Color: colorPrimary,
		}))),
	}
	for _, term := range terms {
		rows = append(rows, row.New(8).Add(col.New(12).Add(text.New(term, props.Text{
			Size: 9, Color: colorSecondary,
		}))))
	}
	return rows
}

func buildSignatureBlock() []core.Row {
	sig := func(label string) core.Col {
		return col.New(5).Add(
			text.New("________________________", props.Text{Size: 10, Color: colorPrimary}),
			text.New(label, props.Text{Size: 8, Color: colorSecondary, Top: 6}),
		)
	}
	return []core.Row{
		row.New(14).Add(sig("Ort, Datum, Vermieter"), col.New(2), sig("Ort, Datum, Mieter")),
	}
}
