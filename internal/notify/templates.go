package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/corvexa/it-services-portal/internal/model"
)

const signature = "<p>Kind regards,<br>The Corvexa IT Services team</p>"

var esc = html.EscapeString

// OTPCode is the sign-in verification email.
func OTPCode(to, code string, ttl time.Duration) Email {
	return Email{
		To:      to,
		Subject: "Your verification code",
		Body: fmt.Sprintf(`<p>Your sign-in verification code is:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
<p>The code expires in %d minutes. If you did not try to sign in, you can ignore this email.</p>%s`,
			esc(code), int(ttl.Minutes()), signature),
		HTML: true,
	}
}

// BookingConfirmation is sent to the client who claimed a slot.
func BookingConfirmation(b model.Booking) Email {
	return Email{
		To:      b.Email,
		Subject: "Consultation booked for " + b.Date + " at " + b.Time,
		Body: fmt.Sprintf(`<p>Hello %s,</p>
<p>Your consultation is confirmed.</p>
%s%s`, esc(b.Name), bookingDetails(b), signature),
		HTML: true,
	}
}

// BookingAdminCopy tells staff about a new booking.
func BookingAdminCopy(to string, b model.Booking) Email {
	return Email{
		To:      to,
		Subject: "New booking: " + b.Date + " " + b.Time,
		Body: fmt.Sprintf(`<p>A consultation was booked by %s &lt;%s&gt;.</p>
%s`, esc(b.Name), esc(b.Email), bookingDetails(b)),
		HTML: true,
	}
}

func bookingDetails(b model.Booking) string {
	var sb strings.Builder
	sb.WriteString("<ul>")
	fmt.Fprintf(&sb, "<li><strong>Date:</strong> %s</li>", esc(b.Date))
	fmt.Fprintf(&sb, "<li><strong>Time:</strong> %s</li>", esc(b.Time))
	fmt.Fprintf(&sb, "<li><strong>Service:</strong> %s</li>", esc(b.Service))
	if strings.TrimSpace(b.Message) != "" {
		fmt.Fprintf(&sb, "<li><strong>Message:</strong> %s</li>", esc(b.Message))
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// Credentials delivers the sign-in details of a newly registered client.
func Credentials(to, firstName, password, signInURL string) Email {
	return Email{
		To:      to,
		Subject: "Your client portal account",
		Body: fmt.Sprintf(`<p>Hello %s,</p>
<p>An account has been created for you on our client portal.</p>
<ul><li><strong>Email:</strong> %s</li><li><strong>Password:</strong> %s</li></ul>
<p>Sign in at <a href="%s">%s</a> and change your password after the first sign-in.</p>%s`,
			esc(firstName), esc(to), esc(password), esc(signInURL), esc(signInURL), signature),
		HTML: true,
	}
}

// PasswordReset carries the reset link.
func PasswordReset(to, link string, ttl time.Duration) Email {
	return Email{
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p><a href="%s">Choose a new password</a></p>
<p>The link expires in %d minutes. If you did not ask for a reset, ignore this email.</p>%s`,
			esc(link), int(ttl.Minutes()), signature),
		HTML: true,
	}
}

// ContactForward relays a contact form submission to staff.
func ContactForward(to, name, from, message string) Email {
	return Email{
		To:      to,
		Subject: "Contact form: " + name,
		Body: fmt.Sprintf(`<p><strong>From:</strong> %s &lt;%s&gt;</p>
<p>%s</p>`, esc(name), esc(from), strings.ReplaceAll(esc(message), "\n", "<br>")),
		HTML: true,
	}
}
