package services

import (
	"strconv"
	"time"

	"github.com/ppmimesir/wisuda/internal/models"
)

// RosterHeader is the column header shared by the CSV and Sheets exports.
func RosterHeader() []string {
	return []string{
		"Registration Date", "Reg ID", "Type", "Name", "Arabic Name", "Gender",
		"Email", "WhatsApp", "Phone", "Nationality", "Passport", "Kekeluargaan",
		"University", "Education", "Faculty", "Major", "Enrollment Year", "Graduation Year",
		"Study Duration", "Quran Juz", "Continuing Study", "Kulliyah", "Syubah",
		"Predicate", "Cumulative Score", "Package", "Confirmation",
	}
}

// RosterRow renders r as one export row; timestamps are shown in loc.
func RosterRow(r *models.Registrant, loc *time.Location) []string {
	score := ""
	if r.Shofi.CumulativeScore != nil {
		score = strconv.FormatFloat(*r.Shofi.CumulativeScore, 'f', -1, 64)
	}
	confirmation := "pending"
	if r.ConfirmationPDFID != nil {
		confirmation = "sent"
	}
	return []string{
		r.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		r.DisplayRegID(),
		string(r.RegistrantType),
		r.Name,
		r.NameArabic,
		r.GenderLabel(),
		r.Email,
		r.WhatsApp,
		r.Phone,
		r.Nationality,
		r.PassportNumber,
		r.Kekeluargaan,
		r.University,
		r.EducationLevel,
		r.Faculty,
		r.Major,
		yearString(r.FirstEnrollmentYear),
		yearString(r.GraduationYear),
		strconv.Itoa(r.StudyDuration),
		strconv.Itoa(r.QuranMemorization),
		r.ContinuingStudy,
		r.Kulliyah,
		r.Syubah,
		r.Shofi.Predicate,
		score,
		r.Atribut.Package,
		confirmation,
	}
}

func yearString(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
