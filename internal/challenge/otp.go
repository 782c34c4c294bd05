package challenge

import (
	"context"

	"github.com/pquerna/otp/totp"
)

const defaultUserLabel = "user"

// OTP issues TOTP challenges: a fresh shared secret plus a provisioning URI
// the caller renders as a QR code. Verification accepts the standard
// 30-second step with a ±1-step drift window.
type OTP struct {
	store  *Store
	issuer string
}

// NewOTP creates the TOTP challenger. issuer names this service in
// authenticator apps.
func NewOTP(store *Store, issuer string) *OTP {
	return &OTP{store: store, issuer: issuer}
}

func (o *OTP) Kind() Kind { return KindOTP }

// Initiate generates a fresh secret and stores it; the otpauth URL embeds
// issuer, label, and secret for enrollment.
func (o *OTP) Initiate(_ context.Context, p InitiateParams) (*Issued, error) {
	label := p.UserLabel
	if label == "" {
		label = defaultUserLabel
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: label,
	})
	if err != nil {
		return nil, err
	}

	rec := o.store.Create(Record{Kind: KindOTP, Secret: key.Secret()}, p.TTL)

	return &Issued{
		ChallengeID: rec.ID,
		OTPAuthURL:  key.URL(),
	}, nil
}

// Check validates the code against the stored secret at the current time.
// totp.Validate uses a 30s period, 6 digits, and skew 1 (±1 step).
func (o *OTP) Check(rec Record, resp Response) (Outcome, error) {
	ok := totp.Validate(resp.Code, rec.Secret)
	return Outcome{Verified: ok}, nil
}
