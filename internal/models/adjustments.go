package models

// DescriptionUpdate overrides the tool description of a single operation
type DescriptionUpdate struct {
	OperationID    string `yaml:"operation_id"`
	NewDescription string `yaml:"new_description"`
}

// MCPAdjustments narrows and rewords the tools generated from one document.
// An empty Operations list keeps every operation.
type MCPAdjustments struct {
	Descriptions []DescriptionUpdate `yaml:"descriptions,omitempty"`
	Operations   []string            `yaml:"operations,omitempty"`
}
