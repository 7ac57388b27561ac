package notifier

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/veeranidhish-7/Automated-Price-Monitory/logger"
	scrapeerrors "github.com/veeranidhish-7/Automated-Price-Monitory/pkg/errors"
)

// SMTPNotifier implements Notifier over SMTP with STARTTLS
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier creates a notifier that sends through the given SMTP server
func NewSMTPNotifier(host string, port int, user, password string) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   user,
	}
}

// Send delivers the price-drop alert email
func (n *SMTPNotifier) Send(toEmail, productTitle string, currentPrice, targetPrice float64, productURL string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Price Alert: %s", productTitle))
	msg.SetBody("text/html", alertBody(productTitle, currentPrice, targetPrice, productURL))

	if err := n.dialer.DialAndSend(msg); err != nil {
		logger.ForNotifier().Error().Err(err).Str("to", toEmail).Msg("Failed to send alert email")
		return scrapeerrors.NewNotifier("failed to send alert email", err)
	}

	logger.ForNotifier().Info().Str("to", toEmail).Msg("Alert email sent")
	return nil
}

// alertBody renders the HTML alert. Kept simple enough to survive every mail
// client's HTML subset.
func alertBody(productTitle string, currentPrice, targetPrice float64, productURL string) string {
	return fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
			<div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4;">
				<div style="background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 5px;">
					<h1 style="margin: 0;">Price Drop Alert!</h1>
				</div>
				<div style="background-color: white; padding: 30px; margin-top: 20px; border-radius: 5px;">
					<p>The price of your tracked product has dropped to your target:</p>
					<div style="background-color: #f9f9f9; padding: 15px; border-left: 4px solid #4CAF50; margin: 20px 0;">
						<p style="margin: 5px 0;"><strong>Product:</strong> %s</p>
						<p style="margin: 5px 0;"><strong>Current Price:</strong> <span style="color: #4CAF50; font-size: 20px; font-weight: bold;">₹%.2f</span></p>
						<p style="margin: 5px 0;"><strong>Your Target:</strong> ₹%.2f</p>
						<p style="margin: 5px 0;"><strong>Savings:</strong> <span style="color: #e74c3c; font-weight: bold;">₹%.2f</span></p>
					</div>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s" style="background-color: #4CAF50; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">View Product Now</a>
					</div>
					<p style="color: #777; font-size: 12px; margin-top: 30px;">
						This is an automated alert from your price tracker.
						You're receiving this because you set a price alert for this product.
					</p>
				</div>
			</div>
		</body>
	</html>`, productTitle, currentPrice, targetPrice, targetPrice-currentPrice, productURL)
}
