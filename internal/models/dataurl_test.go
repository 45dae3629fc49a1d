package models_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/eburon/artifact-web-ui/internal/models"
)

func TestParseDataURL(t *testing.T) {
	tests := []struct {
		name    string
		dataURL string
		want    models.Blob
		wantErr bool
	}{
		{
			name:    "PNG",
			dataURL: "data:image/png;base64,iVBORw0KGgo=",
			want:    models.Blob{MIMEType: "image/png", Data: "iVBORw0KGgo="},
		},
		{
			name:    "Payload with comma",
			dataURL: "data:text/plain;base64,YSxi,extra",
			want:    models.Blob{MIMEType: "text/plain", Data: "YSxi,extra"},
		},
		{
			name:    "No encoding segment",
			dataURL: "data:image/gif,R0lG",
			want:    models.Blob{MIMEType: "image/gif", Data: "R0lG"},
		},
		{
			name:    "Missing comma",
			dataURL: "data:image/png;base64",
			wantErr: true,
		},
		{
			name:    "Missing colon",
			dataURL: "image/png;base64,AAAA",
			wantErr: true,
		},
		{
			name:    "Missing mime type",
			dataURL: "data:;base64,AAAA",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.ParseDataURL(tt.dataURL)
			if tt.wantErr {
				if !errors.Is(err, models.ErrMalformedDataURL) {
					t.Errorf("ParseDataURL() error = %v, want %v", err, models.ErrMalformedDataURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDataURL() = %+v, want %+v", got, tt.want)
			}
			if strings.Contains(tt.dataURL, ";base64,") && got.DataURL() != tt.dataURL {
				t.Errorf("DataURL() = %q, want %q", got.DataURL(), tt.dataURL)
			}
		})
	}
}
