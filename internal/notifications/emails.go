package notifications

import (
	"fmt"

	"github.com/makao-africa/makao-backend/pkg/mailer"
	"github.com/makao-africa/makao-backend/pkg/outbox/payloads"
)

func bookingConfirmedGuestEmail(to string, payload payloads.BookingConfirmedEvent) mailer.Email {
	name := payload.GuestName
	if name == "" {
		name = "there"
	}
	amount := fmt.Sprintf("%s %.2f", payload.Currency, float64(payload.AmountCents)/100)
	return mailer.Email{
		To:      to,
		Subject: "Your Makao booking is confirmed",
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour booking is confirmed. We received your payment of %s (reference %s).\n\nYour receipt will follow in a separate email.\n\nKaribu,\nThe Makao Team",
			name, amount, payload.PaymentReference,
		),
	}
}

func bookingConfirmedLandlordEmail(to string, payload payloads.BookingConfirmedEvent) mailer.Email {
	guest := payload.GuestName
	if guest == "" {
		guest = payload.GuestEmail
	}
	return mailer.Email{
		To:      to,
		Subject: "New booking received",
		Text: fmt.Sprintf(
			"You have a new confirmed booking from %s (booking %s).\n\nLog in to Makao to see the details.",
			guest, payload.BookingID,
		),
	}
}

func receiptReadyEmail(to string, payload payloads.ReceiptGeneratedEvent) mailer.Email {
	return mailer.Email{
		To:      to,
		Subject: fmt.Sprintf("Your receipt %s", payload.ReceiptNumber),
		Text: fmt.Sprintf(
			"Your payment receipt (%s) for %s is ready.\n\nDownload: %s\nVerify: %s",
			payload.ReceiptNumber, payload.AmountDisplay, payload.DownloadURL, payload.VerifyURL,
		),
		HTML: fmt.Sprintf(
			`<p>Your payment receipt (<strong>%s</strong>) for <strong>%s</strong> is ready.</p><p><a href="%s">Download receipt</a> &middot; <a href="%s">Verify authenticity</a></p>`,
			payload.ReceiptNumber, payload.AmountDisplay, payload.DownloadURL, payload.VerifyURL,
		),
	}
}
