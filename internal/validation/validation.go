package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/models"
)

// Keys of the identity block every organisation file must carry
const (
	infoKey    = "organisationInformation"
	nameKey    = "name"
	numberKey  = "number"
	countryKey = "registrationCountry"
)

// WhatsApp JID patterns
var (
	// Individual JID pattern: number@s.whatsapp.net
	individualJIDPattern = regexp.MustCompile(`^\d{10,15}@s\.whatsapp\.net$`)

	// Group JID pattern: groupid@g.us (older groups carry a creator-timestamp suffix)
	groupJIDPattern = regexp.MustCompile(`^\d+(-\d+)?@g\.us$`)
)

// IsWellFormed reports whether raw decodes to a JSON object.
// Arrays, primitives and parse failures are rejected.
func IsWellFormed(raw []byte) bool {
	_, err := decodeObject(raw)
	return err == nil
}

// HasRequiredFields reports whether obj carries an organisationInformation
// object whose name, number and registrationCountry are all present and truthy.
// Anything unexpected counts as missing.
func HasRequiredFields(obj map[string]interface{}) bool {
	info, ok := obj[infoKey].(map[string]interface{})
	if !ok {
		return false
	}

	for _, key := range []string{nameKey, numberKey, countryKey} {
		if !truthy(info[key]) {
			return false
		}
	}

	return true
}

// ParsePayload decodes and validates an organisation file.
// It fails with MALFORMED_PAYLOAD when raw is not a JSON object and with
// VALIDATION_FAILED when the identity fields are missing or unusable.
func ParsePayload(raw []byte) (*models.OrganisationPayload, *errors.AppError) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, errors.MalformedPayload(err)
	}

	if !HasRequiredFields(obj) {
		return nil, errors.ValidationError("Missing required fields")
	}

	info := obj[infoKey].(map[string]interface{})
	name, okName := scalarString(info[nameKey])
	number, okNumber := scalarString(info[numberKey])
	country, okCountry := scalarString(info[countryKey])
	if !okName || !okNumber || !okCountry {
		return nil, errors.ValidationError("Identity fields must be strings or numbers")
	}

	return &models.OrganisationPayload{
		Data: obj,
		Info: models.OrganisationInformation{
			Name:                name,
			Number:              number,
			RegistrationCountry: country,
		},
	}, nil
}

// IsValidJID checks if a JID is a valid WhatsApp user or group address
func IsValidJID(jid string) bool {
	jid = strings.TrimSpace(jid)
	return individualJIDPattern.MatchString(jid) || groupJIDPattern.MatchString(jid)
}

// decodeObject parses raw as exactly one JSON object.
// Numbers are kept as json.Number so registration numbers survive a round-trip.
func decodeObject(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}

	obj, ok := v.(map[string]interface{})
	if !ok || obj == nil {
		return nil, fmt.Errorf("top-level value is %T, not an object", v)
	}

	return obj, nil
}

// truthy mirrors JavaScript truthiness for decoded JSON values
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case float64:
		return val != 0
	default:
		// objects and arrays are truthy even when empty
		return true
	}
}

func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return fmt.Sprint(val), true
	default:
		return "", false
	}
}
