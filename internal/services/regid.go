package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/models"
)

var (
	reUnsafe   = regexp.MustCompile(`[^A-Za-z0-9 _-]+`)
	reSpaces   = regexp.MustCompile(`\s+`)
	reSequence = regexp.MustCompile(`^(\d+)-`)
)

// SafeName folds accents, drops everything outside [A-Za-z0-9 _-], collapses
// whitespace to single underscores, trims and upper-cases.
// SafeName(SafeName(s)) == SafeName(s).
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s := reUnsafe.ReplaceAllString(b.String(), "")
	s = strings.TrimSpace(s)
	s = reSpaces.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	return strings.ToUpper(s)
}

// FormatRegID renders "{n}-{TYPE}-{SAFE_NAME}".
func FormatRegID(n int64, t models.RegistrantType, name string) string {
	return fmt.Sprintf("%d-%s-%s", n, t, SafeName(name))
}

// ParseSequence extracts the leading "{digits}-" prefix of a reg_id.
func ParseSequence(regID string) (int64, bool) {
	m := reSequence.FindStringSubmatch(regID)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxSequence returns the highest parsed sequence among ids, 0 if none parse.
func MaxSequence(ids []string) int64 {
	var max int64
	for _, id := range ids {
		if n, ok := ParseSequence(id); ok && n > max {
			max = n
		}
	}
	return max
}

// FallbackRegID is the time-derived id used when sequence assignment fails.
func FallbackRegID(now time.Time) string {
	hex := strconv.FormatInt(now.UnixNano(), 16)
	if len(hex) > 8 {
		hex = hex[len(hex)-8:]
	}
	return "REG_" + strings.ToUpper(hex)
}

func sequenceCounter(t models.RegistrantType) string {
	return "regid:" + string(t)
}

// nextSequence atomically advances the per-type counter inside tx. The counter
// is seeded from the existing reg_ids of that type the first time it is used.
func nextSequence(tx *gorm.DB, t models.RegistrantType) (int64, error) {
	name := sequenceCounter(t)
	err := seedCounter(tx, name, func() (int64, error) {
		var ids []string
		err := tx.Model(&models.Registrant{}).
			Where("registrant_type = ?", t).
			Pluck("reg_id", &ids).Error
		return MaxSequence(ids), err
	})
	if err != nil {
		return 0, err
	}
	return incrementCounter(tx, name, 0)
}
