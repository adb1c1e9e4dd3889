package models

// Document is an OpenAPI document known to the hub, keyed by its unique name
type Document struct {
	Name            string `json:"name" yaml:"name"`
	Location        string `json:"location" yaml:"location"`
	OverrideBaseURL string `json:"overrideUrl,omitempty" yaml:"override_url,omitempty"`
	AdjustmentsFile string `json:"adjustmentsFile,omitempty" yaml:"adjustments_file,omitempty"`
}

// OperationInfo is the listing view of a registered operation
type OperationInfo struct {
	OperationID  string `json:"operationId"`
	Description  string `json:"description"`
	DocumentName string `json:"documentName"`
}
