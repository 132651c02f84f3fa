package handler

import (
	"net/http"

	"github.com/capitalize-ai/theology-chat/internal/config"
)

// ManifestIcon is an icon entry of the web app manifest.
type ManifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose,omitempty"`
}

// WebManifest is the installable web app manifest.
type WebManifest struct {
	config.PWAConfig
	Icons []ManifestIcon `json:"icons"`
}

var iconSizes = []string{"72x72", "96x96", "128x128", "144x144", "152x152", "192x192", "384x384", "512x512"}

// NewWebManifest builds the manifest for cfg with the shipped icon set.
func NewWebManifest(cfg config.PWAConfig) *WebManifest {
	icons := make([]ManifestIcon, 0, len(iconSizes))
	for _, size := range iconSizes {
		icons = append(icons, ManifestIcon{
			Src:     "/icons/icon-" + size + ".png",
			Sizes:   size,
			Type:    "image/png",
			Purpose: "maskable any",
		})
	}
	return &WebManifest{PWAConfig: cfg, Icons: icons}
}

// Manifest returns a handler serving GET /manifest.json
func Manifest(cfg config.PWAConfig) http.HandlerFunc {
	manifest := NewWebManifest(cfg)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		writeJSON(w, http.StatusOK, manifest)
	}
}
