package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestViewer(t *testing.T) {
	tests := []struct {
		name     string
		data     ViewerData
		contains []string
		absent   []string
	}{
		{"defaults", ViewerData{}, []string{"<title>topicgraph</title>", `value="2d" selected`}, []string{`id="apiKey"`}},
		{"relays out the working graph", ViewerData{}, []string{`"/api/layout"`, "body.baseGraph = workingGraph()", "merge(fragment); await relayout();"}, nil},
		{"auth and 3d", ViewerData{AuthEnabled: true, DefaultView: "3d"}, []string{`id="apiKey"`, `value="3d" selected`}, nil},
		{"escaped api base", ViewerData{APIBase: `"></script>`}, nil, []string{`"></script>";`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewViewer(tt.data, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viewer", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, rec.Body.String(), s)
			}
		})
	}
}
