package user

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidReferralCode = errors.New("invalid referral code")
)

var (
	emailRegex        = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	referralCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6,16}$`)
)

type Email struct {
	value string
}

func NewEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if !emailRegex.MatchString(s) {
		return Email{}, ErrInvalidEmail
	}
	return Email{value: s}, nil
}

func (e Email) Value() string {
	return e.value
}

type ReferralCode string

func NewReferralCode(s string) (ReferralCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !referralCodeRegex.MatchString(s) {
		return "", ErrInvalidReferralCode
	}
	return ReferralCode(s), nil
}

// no 0/O/1/I
const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func GenerateReferralCode() (ReferralCode, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return ReferralCode(buf), nil
}

func (c ReferralCode) String() string { return string(c) }
