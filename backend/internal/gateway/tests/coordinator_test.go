package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachers_portal/backend/internal/auth"
	"teachers_portal/backend/internal/report"
)

func TestGateway_CoordinatorReport(t *testing.T) {
	env := setupGatewayTestEnv(t)
	token := env.register(t, auth.RegisterRequest{FirstName: "Carlos", Email: "carlos@school.test", Role: "coordinador"})

	t.Run("Options", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/coordinator/options", token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var opts report.Options
		decodeData(t, rr, &opts)
		assert.Len(t, opts.Grades, 13)
		assert.Empty(t, opts.Sections)

		rr = env.do(t, http.MethodGet, "/api/coordinator/options?grade=2nd+Grade", token, nil)
		decodeData(t, rr, &opts)
		assert.Equal(t, []string{"U"}, opts.Sections)
		assert.Equal(t, "U", opts.SelectedSection)

		rr = env.do(t, http.MethodGet, "/api/coordinator/options?grade=3rd+Year", token, nil)
		decodeData(t, rr, &opts)
		assert.Equal(t, []string{"A", "B"}, opts.Sections)
		assert.Empty(t, opts.SelectedSection)
	})

	t.Run("Report", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/coordinator/report?grade=3rd+Year&section=B", token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var rep report.ClassReport
		decodeData(t, rr, &rep)
		assert.Equal(t, "3rd Year", rep.Grade)
		assert.Equal(t, "B", rep.Section)
		require.Len(t, rep.Students, 2)
		assert.Equal(t, "Lucia Torres", rep.Students[0].Name)
		assert.Equal(t, 16.5, rep.Students[0].Overall)
		assert.Equal(t, 8.0, rep.Students[1].Overall)
		assert.Equal(t, 16.5, rep.Highest)
		assert.Equal(t, 8.0, rep.Lowest)
		assert.Equal(t, "50.0%", rep.PassingRate)
		assert.Equal(t, "Matemáticas", rep.Subjects[0])
	})

	t.Run("Empty class", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/coordinator/report?grade=1st+Year&section=A", token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var rep report.ClassReport
		decodeData(t, rr, &rep)
		assert.Empty(t, rep.Students)
		assert.Equal(t, "0.0%", rep.PassingRate)
	})

	t.Run("Invalid selection", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/api/coordinator/report?grade=3rd+Year&section=U", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = env.do(t, http.MethodGet, "/api/coordinator/report?grade=Kinder&section=A", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Averages unavailable", func(t *testing.T) {
		env.Averages.fail(errDatabaseDown)
		rr := env.do(t, http.MethodGet, "/api/coordinator/report?grade=3rd+Year&section=B", token, nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
