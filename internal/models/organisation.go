package models

import "time"

// OrganisationInformation holds the identity fields every organisation file must declare
type OrganisationInformation struct {
	Name                string `json:"name"`
	Number              string `json:"number"`
	RegistrationCountry string `json:"registrationCountry"`
}

// OrganisationPayload is a decoded organisation file.
// Data keeps the full document, Info the validated identity fields.
type OrganisationPayload struct {
	Data map[string]interface{}
	Info OrganisationInformation
}

// OrganisationRecord is the persisted form of one organisation file
type OrganisationRecord struct {
	ID                  int64                  `json:"id"`
	Name                string                 `json:"name"`
	RegistrationNumber  string                 `json:"registrationNumber"`
	RegistrationCountry string                 `json:"registrationCountry"`
	Payload             map[string]interface{} `json:"payload"`
	Filename            string                 `json:"filename"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
}

// RegistryCompanyResponse is the part of the company registry response we read
type RegistryCompanyResponse struct {
	Results struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"results"`
}
