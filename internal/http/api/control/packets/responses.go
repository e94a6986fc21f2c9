package packets

type MessageResponse struct {
	Msg string `json:"msg"`
}

type DeleteContentsResponse struct {
	Msg     string `json:"msg"`
	Deleted int64  `json:"deleted"`
}
