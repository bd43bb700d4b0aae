package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	GraphID string `validate:"required"`
	NodeID  string `validate:"required,node_id"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{GraphID: "g1", NodeID: "node-1"}))

	err := ValidateRequest(sampleRequest{NodeID: "node-1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GraphID")
}

func TestNodeIDValidation(t *testing.T) {
	valid := []string{"a", "node-1", "Node_2", "9to5"}
	for _, id := range valid {
		assert.NoError(t, ValidateRequest(sampleRequest{GraphID: "g", NodeID: id}), id)
	}

	invalid := []string{"-leading-dash", "_leading", "has space", "bang!"}
	for _, id := range invalid {
		assert.Error(t, ValidateRequest(sampleRequest{GraphID: "g", NodeID: id}), id)
	}
}
