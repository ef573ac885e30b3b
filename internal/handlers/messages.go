package handlers

import "github.com/ppmimesir/wisuda/internal/services"

// errText maps validation keys to the text shown next to the form field.
var errText = map[string]string{
	services.KeyTypeInvalid:           "Pilih jenis pendaftaran: SHOFI, TASHFIYAH atau ATRIBUT.",
	services.KeyNameRequired:          "Nama lengkap wajib diisi.",
	services.KeyNameTooShort:          "Nama lengkap terlalu pendek.",
	services.KeyNameArabicRequired:    "Nama dalam huruf Arab wajib diisi.",
	services.KeyNameArabicInvalid:     "Nama Arab hanya boleh berisi huruf Arab.",
	services.KeyGenderInvalid:         "Jenis kelamin tidak valid.",
	services.KeyEmailInvalid:          "Alamat email tidak valid.",
	services.KeyWhatsAppRequired:      "Nomor WhatsApp wajib diisi.",
	services.KeyWhatsAppInvalid:       "Nomor WhatsApp tidak valid.",
	services.KeyPassportRequired:      "Nomor paspor wajib diisi.",
	services.KeyUniversityRequired:    "Universitas wajib diisi.",
	services.KeyEducationInvalid:      "Jenjang pendidikan harus S1, S2 atau S3.",
	services.KeyYearsInvalid:          "Tahun masuk dan tahun lulus tidak valid.",
	services.KeyQuranOutOfRange:       "Hafalan Al-Qur'an harus antara 0 dan 30 juz.",
	services.KeyContinuingRequired:    "Pilih rencana melanjutkan studi.",
	services.KeyContinuingInvalid:     "Pilihan melanjutkan studi tidak valid.",
	services.KeyKulliyahRequired:      "Kulliyah tujuan wajib diisi.",
	services.KeySyubahRequired:        "Syu'bah tujuan wajib diisi.",
	services.KeyShofiReadyRequired:    "Konfirmasi kesediaan hadir wajib dicentang.",
	services.KeyPredicateRequired:     "Predikat kelulusan wajib diisi.",
	services.KeySyahadahRequired:      "Foto syahadah wajib diunggah.",
	services.KeyScoreOutOfRange:       "Nilai kumulatif harus antara 0 dan 100.",
	services.KeyTashfiyahFlags:        "Semua pernyataan tashfiyah wajib dicentang.",
	services.KeyAtributReadyRequired:  "Konfirmasi kesediaan hadir wajib dicentang.",
	services.KeyPackageRequired:       "Pilih paket atribut.",
	services.KeyPhotoRequired:         "Pas foto wajib diunggah.",
	services.KeyPhotoUnknown:          "Pas foto tidak ditemukan, silakan unggah ulang.",
	services.KeySyahadahUnknown:       "Foto syahadah tidak ditemukan, silakan unggah ulang.",
	services.KeyTermsRequired:         "Anda harus menyetujui syarat dan ketentuan.",
	services.KeyRegistrationClosedKey: "Kuota pendaftaran telah penuh.",
	services.KeyMediaKindInvalid:      "Jenis berkas tidak dikenal.",
	services.KeyMediaType:             "Format berkas tidak didukung.",
	services.KeyMediaEmpty:            "Berkas kosong.",
	"media_too_large":                 "Ukuran berkas melebihi batas.",
	"settings_name_required":          "Nama pengaturan wajib diisi.",
}

// messagesFor returns the display text for each key. Unknown keys map to themselves.
func messagesFor(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if t, ok := errText[k]; ok {
			out[k] = t
			continue
		}
		out[k] = k
	}
	return out
}
