package alist

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /api/auth/login.
type LoginResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
	} `json:"data"`
}

// ListRequest is the payload for POST /api/fs/list.
type ListRequest struct {
	Path     string `json:"path"`
	Password string `json:"password"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	Refresh  bool   `json:"refresh"`
}

// ListResponse is returned from POST /api/fs/list.
type ListResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Content []Entry `json:"content"`
		Total   int     `json:"total"`
	} `json:"data"`
}

// Entry is one row of a directory listing: an immutable snapshot of
// server state at list time. Modified is kept as the raw server string;
// parsing it is the selector's concern because a malformed timestamp
// must degrade per entry, not fail the listing.
type Entry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"is_dir"`
	Modified string `json:"modified"`
	Type     int    `json:"type"`
}

// MkdirRequest is the payload for POST /api/fs/mkdir.
type MkdirRequest struct {
	Path string `json:"path"`
}

// GetRequest is the payload for POST /api/fs/get.
type GetRequest struct {
	Path     string `json:"path"`
	Password string `json:"password"`
}

// GetResponse is returned from POST /api/fs/get.
type GetResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name   string `json:"name"`
		RawURL string `json:"raw_url"`
		Type   int    `json:"type"`
	} `json:"data"`
}

// envelope is the common code/message wrapper on every alist response.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
