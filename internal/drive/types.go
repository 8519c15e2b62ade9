package drive

// folderMimeType marks folder entries in the Drive files collection.
const folderMimeType = "application/vnd.google-apps.folder"

// Folder is a folder entry in the store. Fields are normalized from the
// API response — callers never see raw API data.
type Folder struct {
	ID   string
	Name string
}

// File is the descriptor the store returns for a completed upload.
type File struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}
