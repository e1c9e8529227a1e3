package identity

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const defaultServiceAccountFile = "serviceAccountKey.json"

type serviceAccount struct {
	ProjectID string `json:"project_id"`
}

// ResolveFirebaseProjectID determines the Firebase project id from, in
// priority order: an explicit service-account file, the conventional
// serviceAccountKey.json next to the binary, an environment-supplied
// project id, and finally ambient platform credentials. An empty result
// means Firebase token verification stays unavailable.
func ResolveFirebaseProjectID(credentialsPath, projectID string) string {
	if credentialsPath != "" {
		if id, err := projectIDFromFile(credentialsPath); err == nil {
			return id
		} else {
			slog.Error("failed to load firebase credentials file", "path", credentialsPath, "error", err)
		}
	}

	if id, err := projectIDFromFile(defaultServiceAccountFile); err == nil {
		return id
	}

	if projectID != "" {
		return projectID
	}

	if ambient := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); ambient != "" {
		if id, err := projectIDFromFile(ambient); err == nil {
			return id
		} else {
			slog.Warn("failed to load ambient credentials", "path", ambient, "error", err)
		}
	}

	slog.Warn("firebase credentials not configured, firebase token verification disabled")
	return ""
}

func projectIDFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read credentials file: %w", err)
	}

	var sa serviceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return "", fmt.Errorf("parse credentials file: %w", err)
	}

	if sa.ProjectID == "" {
		return "", fmt.Errorf("credentials file %s carries no project_id", path)
	}

	return sa.ProjectID, nil
}
