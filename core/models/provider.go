package models

// Element is a tab of a document as listed by the provider. Part studios
// are elements with type "PARTSTUDIO".
type Element struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"elementType"`
}

// Part is one part of a studio as listed by the provider. Identifiers are
// not stable across configurations; the same geometric part may carry a
// different PartID under a different configuration.
type Part struct {
	PartID string `json:"partId"`
	Name   string `json:"name"`
}

// ParameterRecord is one configuration parameter value on the wire.
type ParameterRecord struct {
	ParameterID    string `json:"parameterId"`
	ParameterValue string `json:"parameterValue"`
}

// Payload is a downloaded file body with its declared content type.
type Payload struct {
	Bytes       []byte
	ContentType string
}

// TranslationState is the provider-reported state of an asynchronous
// translation job.
type TranslationState string

const (
	TranslationActive TranslationState = "ACTIVE"
	TranslationDone   TranslationState = "DONE"
	TranslationFailed TranslationState = "FAILED"
)

// TranslationStatus is one poll response for a translation job.
type TranslationStatus struct {
	ID                    string           `json:"id"`
	RequestState          TranslationState `json:"requestState"`
	ResultExternalDataIDs []string         `json:"resultExternalDataIds"`
	FailureReason         string           `json:"failureReason"`
}
