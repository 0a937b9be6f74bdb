package checkout

import "strings"

const (
	postalCodeLength = 5
	phoneLength      = 10
)

// digitsOnly strips non-digits and truncates to max characters, mirroring
// the input masks on the postal-code and phone fields.
func digitsOnly(s string, max int) string {
	var b strings.Builder
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == max {
			break
		}
	}
	return b.String()
}

// MaskPostalCode applies the postal-code input mask.
func MaskPostalCode(s string) string {
	return digitsOnly(s, postalCodeLength)
}

// MaskPhone applies the phone input mask.
func MaskPhone(s string) string {
	return digitsOnly(s, phoneLength)
}

// PostalCodeMessage returns the inline validation message for a masked
// postal code: empty is fine, short is flagged.
func PostalCodeMessage(s string) string {
	if len(s) > 0 && len(s) < postalCodeLength {
		return "postal code must be 5 digits"
	}
	return ""
}

// PhoneMessage returns the inline validation message for a masked phone.
func PhoneMessage(s string) string {
	if len(s) > 0 && len(s) < phoneLength {
		return "phone number must be 10 digits"
	}
	return ""
}
