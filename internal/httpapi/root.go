package httpapi

import (
	"net/http"

	"github.com/stacklok/takagi/pkg/config"
)

// repoURL is where GET / points under ROOT_REDIRECT=repo.
const repoURL = "https://github.com/stacklok/takagi"

// upstreamSettingsURL is where GET / points under ROOT_REDIRECT=settings:
// the upstream provider's own OAuth application management page, since
// Takagi has no user-facing settings UI of its own.
var upstreamSettingsURL = map[string]string{
	"github":  "https://github.com/settings/applications",
	"discord": "https://discord.com/developers/applications",
}

// handleRoot implements GET / per ROOT_REDIRECT: "repo" and "settings"
// 302 to a fixed external URL, "docs" 302s to /docs (implying
// ENABLE_DOCS, enforced by config.Validate), "off" responds 404.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	switch s.rootRedirect {
	case config.RootRedirectRepo:
		http.Redirect(w, r, repoURL, http.StatusFound)
	case config.RootRedirectSettings:
		target := upstreamSettingsURL[s.upstreamProvider]
		if target == "" {
			target = repoURL
		}
		http.Redirect(w, r, target, http.StatusFound)
	case config.RootRedirectDocs:
		http.Redirect(w, r, s.basePathJoin("/docs"), http.StatusFound)
	case config.RootRedirectOff:
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) basePathJoin(path string) string {
	if s.basePath == "/" {
		return path
	}
	return s.basePath + path
}
