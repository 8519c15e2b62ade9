package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// listPageSize is the pageSize for folder listing requests. 1000 is the
// maximum the Drive API allows. Listing is deliberately single-page: the
// per-ticket folder population is expected to stay well below this, and a
// truncated listing is surfaced as a warning rather than silently masked.
const listPageSize = 1000

// fileResource mirrors the Drive API file JSON for the fields we request.
type fileResource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size,omitempty"`
}

type listFilesResponse struct {
	Files         []fileResource `json:"files"`
	NextPageToken string         `json:"nextPageToken"`
}

type createFolderRequest struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents"`
}

// ListChildFolders returns the folder-type children of the given parent.
// A single page of up to 1000 entries is fetched; if the store reports
// more, the truncation is logged at Warn and the partial list returned.
func (c *Client) ListChildFolders(ctx context.Context, parentID string) ([]Folder, error) {
	c.logger.Debug("listing child folders",
		slog.String("parent_id", parentID),
	)

	query := url.Values{}
	query.Set("q", fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", parentID, folderMimeType))
	query.Set("pageSize", fmt.Sprintf("%d", listPageSize))
	query.Set("fields", "files(id,name),nextPageToken")
	query.Set("supportsAllDrives", "true")
	query.Set("includeItemsFromAllDrives", "true")

	resp, err := c.Do(ctx, http.MethodGet, "/files?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lfr listFilesResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&lfr); decErr != nil {
		return nil, fmt.Errorf("drive: decoding folder list response: %w", decErr)
	}

	if lfr.NextPageToken != "" {
		c.logger.Warn("folder listing truncated at page size, name resolution may miss folders",
			slog.String("parent_id", parentID),
			slog.Int("page_size", listPageSize),
		)
	}

	folders := make([]Folder, 0, len(lfr.Files))
	for _, f := range lfr.Files {
		folders = append(folders, Folder{ID: f.ID, Name: f.Name})
	}

	c.logger.Debug("listed child folders",
		slog.String("parent_id", parentID),
		slog.Int("count", len(folders)),
	)

	return folders, nil
}

// CreateFolder creates a new folder under the given parent and returns it.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (*Folder, error) {
	c.logger.Info("creating folder",
		slog.String("parent_id", parentID),
		slog.String("name", name),
	)

	reqBody := createFolderRequest{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("drive: marshaling create folder request: %w", err)
	}

	resp, err := c.Do(ctx, http.MethodPost, "/files?supportsAllDrives=true&fields=id,name", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var fr fileResource
	if decErr := json.NewDecoder(resp.Body).Decode(&fr); decErr != nil {
		return nil, fmt.Errorf("drive: decoding create folder response: %w", decErr)
	}

	return &Folder{ID: fr.ID, Name: fr.Name}, nil
}
