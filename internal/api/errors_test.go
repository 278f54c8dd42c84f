package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/lumina-dashboard/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails bool
	}{
		{
			name:        "user error keeps message and details",
			err:         fmt.Errorf("lookup: %w", apperrors.NewNotFoundError("asset", "DOGE")),
			wantStatus:  http.StatusNotFound,
			wantCode:    apperrors.CodeNotFound,
			wantMessage: "asset not found: DOGE",
			wantDetails: true,
		},
		{
			name:        "domain error is unprocessable",
			err:         apperrors.NewEmptyPortfolioError("top asset"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    apperrors.CodeEmptyPortfolio,
			wantMessage: "top asset requires at least one asset",
			wantDetails: true,
		},
		{
			name:        "system error is masked",
			err:         apperrors.NewProviderError("gemini", stderrors.New("eof")),
			wantStatus:  http.StatusBadGateway,
			wantCode:    apperrors.CodeProviderError,
			wantMessage: "An internal error occurred",
		},
		{
			name:        "plain error becomes internal",
			err:         stderrors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    apperrors.CodeInternalError,
			wantMessage: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/assets/DOGE", nil)

			respondServiceError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			if tt.wantDetails {
				assert.NotEmpty(t, resp.Error.Details)
			} else {
				assert.Empty(t, resp.Error.Details)
			}
		})
	}
}
