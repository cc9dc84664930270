package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelope(t *testing.T) {
	data, err := json.Marshal(Error(http.StatusConflict, "requisition 4 already has an LPO"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"status":"error","status_code":409,"error":"requisition 4 already has an LPO"}`, string(data))
}

func TestSuccessOmitsError(t *testing.T) {
	data, err := json.Marshal(Success(http.StatusOK, map[string]string{"service": "up"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"status":"success","status_code":200,"data":{"service":"up"}}`, string(data))
}
