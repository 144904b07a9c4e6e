package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"net/url"

	"event-booking/models"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	ticketWidth  = 480
	ticketHeight = 260
	qrSize       = 200
	photoSize    = 96
	maxQRSize    = 1024
)

var (
	ticketBackground = color.NRGBA{R: 0x02, G: 0x19, B: 0x1D, A: 0xFF}
	ticketText       = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	ticketAccent     = color.NRGBA{R: 0x24, G: 0xA0, B: 0xB5, A: 0xFF}
)

// QRPNG renders data as a bare QR code of size x size pixels.
func QRPNG(data string, size int) ([]byte, error) {
	if size <= 0 || size > maxQRSize {
		size = 150
	}
	return qrcode.Encode(data, qrcode.Medium, size)
}

// QRPayload is the value a ticket's QR code encodes.
func QRPayload(ticket models.BookedTicket) string {
	if u, err := url.Parse(ticket.QRCode); err == nil {
		if data := u.Query().Get("data"); data != "" {
			return data
		}
	}
	return ticket.TicketNumber
}

// RenderTicketPNG draws an exportable ticket: QR code on the left, event
// and ticket details on the right, attendee photo in the corner if given.
func RenderTicketPNG(ticket models.BookedTicket, photo []byte) ([]byte, error) {
	qr, err := qrcode.New(QRPayload(ticket), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	canvas := imaging.New(ticketWidth, ticketHeight, ticketBackground)
	canvas = imaging.Paste(canvas, qr.Image(qrSize), image.Pt(30, 30))

	lines := []struct {
		text string
		c    color.Color
	}{
		{ticket.EventName, ticketAccent},
		{fmt.Sprintf("%s %s", ticket.Date, ticket.Time), ticketText},
		{ticket.Venue.Name, ticketText},
		{fmt.Sprintf("%s x%d", ticket.TicketType, ticket.Quantity), ticketText},
		{"Total: $" + ticket.TotalAmount.StringFixed(2), ticketText},
		{ticket.Attendee.Name, ticketText},
		{"#" + ticket.TicketNumber, ticketAccent},
		{string(ticket.Status), ticketText},
	}
	for i, line := range lines {
		drawText(canvas, line.text, line.c, 250, 50+i*20)
	}

	if len(photo) > 0 {
		img, err := imaging.Decode(bytes.NewReader(photo), imaging.AutoOrientation(true))
		if err == nil {
			thumb := imaging.Fill(img, photoSize, photoSize, imaging.Center, imaging.Lanczos)
			canvas = imaging.Paste(canvas, thumb, image.Pt(ticketWidth-photoSize-10, ticketHeight-photoSize-10))
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode ticket image: %w", err)
	}
	return buf.Bytes(), nil
}

func drawText(dst *image.NRGBA, text string, c color.Color, x, y int) {
	// 7px glyphs; keep clear of the right edge
	if limit := (ticketWidth - x - 10) / 7; len(text) > limit {
		text = text[:limit-1] + "~"
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
