package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	GeofenceRadiusMin = 10  // meters
	GeofenceRadiusMax = 500 // meters
)

var (
	// custom validation tags & texts
	latitudeTag   = "latitude_deg"
	latitudeText  = "must be a latitude between -90 and 90"
	longitudeTag  = "longitude_deg"
	longitudeText = "must be a longitude between -180 and 180"
	georadiusTag  = "georadius"
	georadiusText = "must be a geofence radius between 10 and 500 meters"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(latitudeTag, latitudeValidation)
	RegisterCustomTranslation(validate, translator, latitudeTag, latitudeText)

	_ = validate.RegisterValidation(longitudeTag, longitudeValidation)
	RegisterCustomTranslation(validate, translator, longitudeTag, longitudeText)

	_ = validate.RegisterValidation(georadiusTag, georadiusValidation)
	RegisterCustomTranslation(validate, translator, georadiusTag, georadiusText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func latitudeValidation(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func longitudeValidation(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func georadiusValidation(fl validator.FieldLevel) bool {
	r := fl.Field().Float()
	return r >= GeofenceRadiusMin && r <= GeofenceRadiusMax
}
