package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	schemaPath, err := filepath.Abs(filepath.Join("testdata", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func (f *apiFixture) rawGet(t *testing.T, token, path string) interface{} {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestActivityContract(t *testing.T) {
	schema := compileSchema(t, "activity.schema.json")
	f := newAPIFixture(t)

	pending := f.createActivity(t, "Contract pending")
	require.NoError(t, schema.Validate(f.rawGet(t, signToken(t, f.student), fmt.Sprintf("/api/v1/activities/%d", pending))))

	rejected := f.createActivity(t, "Contract rejected")
	resp, _ := f.do(t, &f.faculty, http.MethodPut, fmt.Sprintf("/api/v1/faculty/reject/%d", rejected), map[string]string{"reason": "Duplicate entry"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, schema.Validate(f.rawGet(t, signToken(t, f.student), fmt.Sprintf("/api/v1/activities/%d", rejected))))

	approved := f.createActivity(t, "Contract approved")
	resp, _ = f.do(t, &f.faculty, http.MethodPut, fmt.Sprintf("/api/v1/faculty/approve/%d", approved), map[string]int{"points": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, schema.Validate(f.rawGet(t, signToken(t, f.faculty), fmt.Sprintf("/api/v1/activities/%d", approved))))
}

func TestStudentDashboardContract(t *testing.T) {
	schema := compileSchema(t, "student_dashboard.schema.json")
	f := newAPIFixture(t)

	for i := 0; i < 7; i++ {
		f.createActivity(t, fmt.Sprintf("Seminar %d", i+1))
	}

	require.NoError(t, schema.Validate(f.rawGet(t, signToken(t, f.student), "/api/v1/student/dashboard")))
}

func TestFacultyAnalyticsContract(t *testing.T) {
	schema := compileSchema(t, "analytics.schema.json")
	f := newAPIFixture(t)

	f.createActivity(t, "Analytics sample")

	require.NoError(t, schema.Validate(f.rawGet(t, signToken(t, f.faculty), "/api/v1/faculty/analytics")))
}
