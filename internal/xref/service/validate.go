package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"xref-service/internal/xref/model"
)

var (
	rxSyskompNeu = regexp.MustCompile(`^1\d{8}$`)
	rxSyskompAlt = regexp.MustCompile(`^[24]\d{8}$`)
	rxDotsDigits = regexp.MustCompile(`^[\d.]+$`)
	rxASK        = regexp.MustCompile(`^\d{6,8}$`)
)

// ValidateFormat checks number against the numbering scheme of column c.
// The message is German and meant for the user.
func ValidateFormat(c model.Column, number string) (bool, string) {
	n := strings.TrimSpace(number)
	if n == "" {
		return false, "Nummer darf nicht leer sein"
	}
	switch c {
	case model.ColSyskompNeu:
		if !rxSyskompNeu.MatchString(n) {
			return false, "Syskomp neu muss 9 Ziffern haben und mit 1 beginnen"
		}
	case model.ColSyskompAlt:
		if !rxSyskompAlt.MatchString(n) {
			return false, "Syskomp alt muss 9 Ziffern haben und mit 2 oder 4 beginnen"
		}
	case model.ColDescription:
	case model.ColItem:
		if len(n) > 15 {
			return false, "Max. 15 Zeichen erlaubt"
		}
		if !rxDotsDigits.MatchString(n) {
			return false, "Nur Zahlen und Punkte sind erlaubt (z.B. 0.0.479.76)"
		}
		if !rxItem.MatchString(n) {
			return false, "Format muss x.x.x.x sein (genau 3 Punkte)"
		}
	case model.ColBosch:
		if len(n) != 10 {
			return false, "Bosch-Nummer muss genau 10 Zeichen haben"
		}
		if !rxDigits.MatchString(n) {
			return false, "Nur Zahlen sind erlaubt"
		}
	case model.ColAlvarisArtnr, model.ColAlvarisMatnr:
		if len(n) != 7 {
			return false, "Alvaris-Nummer muss genau 7 Zeichen haben"
		}
		if !rxDigits.MatchString(n) {
			return false, "Nur Zahlen sind erlaubt"
		}
	case model.ColASK:
		if !rxDigits.MatchString(n) {
			return false, "Nur Zahlen sind erlaubt"
		}
		if !rxASK.MatchString(n) {
			return false, "ASK-Nummer muss 6 bis 8 Zeichen haben"
		}
	default:
		return false, fmt.Sprintf("Spalte %s kann nicht geprüft werden", c)
	}
	return true, "OK"
}

type Validation struct {
	Valid       bool   `json:"valid"`
	Message     string `json:"message"`
	FormatValid bool   `json:"format_valid"`
	URLValid    *bool  `json:"url_valid,omitempty"`
}

// Validate checks the format and, with checkURL, whether the supplier shop knows the number.
func (s *Service) Validate(ctx context.Context, c model.Column, number string, checkURL bool) Validation {
	ok, msg := ValidateFormat(c, number)
	if !ok {
		return Validation{Message: msg}
	}
	v := Validation{Valid: true, Message: msg, FormatValid: true}
	if !checkURL {
		return v
	}
	urlOK, urlMsg := s.links.Check(ctx, c, strings.TrimSpace(number))
	v.Valid = urlOK
	v.Message = urlMsg
	v.URLValid = &urlOK
	s.log.Info().Str("col", string(c)).Str("number", number).Bool("found", urlOK).Msg("link check")
	return v
}
