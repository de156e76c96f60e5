package grok

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

// ErrNoFileID is returned when an upload reply carries no file id.
var ErrNoFileID = errors.New("upload returned no file id")

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9]+/[a-zA-Z0-9\-.+]+);base64,`)

type fileUpload struct {
	FileName     string `json:"fileName"`
	FileMimeType string `json:"fileMimeType"`
	Content      string `json:"content"`
}

type rpcUpload struct {
	RPC string     `json:"rpc"`
	Req fileUpload `json:"req"`
}

type uploadReply struct {
	FileMetadataID string `json:"fileMetadataId"`
}

// UploadText uploads text as a plain-text attachment.
func (c *Client) UploadText(ctx context.Context, cookie, name, text string) (string, error) {
	body := fileUpload{
		FileName:     name,
		FileMimeType: "text/plain",
		Content:      base64.StdEncoding.EncodeToString([]byte(text)),
	}
	var reply uploadReply
	if err := c.postJSON(ctx, "upload file", c.baseURL+uploadFilePath, cookie, body, &reply); err != nil {
		return "", err
	}
	if reply.FileMetadataID == "" {
		return "", ErrNoFileID
	}
	c.logger.Debug("uploaded text attachment", "name", name, "file_id", reply.FileMetadataID)
	return reply.FileMetadataID, nil
}

// UploadImage uploads a base64 image through the rpc endpoint. The MIME
// type is taken from the data URI header and defaults to image/jpeg.
func (c *Client) UploadImage(ctx context.Context, cookie, dataURI string) (string, error) {
	mime, content := splitDataURI(dataURI)
	body := rpcUpload{
		RPC: "uploadFile",
		Req: fileUpload{
			FileName:     "image." + mimeExtension(mime),
			FileMimeType: mime,
			Content:      content,
		},
	}
	var reply uploadReply
	if err := c.postJSON(ctx, "upload image", c.baseURL+rpcPath, cookie, body, &reply); err != nil {
		return "", err
	}
	if reply.FileMetadataID == "" {
		return "", ErrNoFileID
	}
	c.logger.Debug("uploaded image attachment", "mime", mime, "file_id", reply.FileMetadataID)
	return reply.FileMetadataID, nil
}

// splitDataURI returns the MIME type and the base64 payload of a data URI.
func splitDataURI(s string) (mime, content string) {
	mime = "image/jpeg"
	if m := dataURIPattern.FindStringSubmatch(s); m != nil {
		mime = m[1]
	}
	if _, after, ok := strings.Cut(s, ","); ok && strings.HasPrefix(s, "data:") {
		return mime, after
	}
	return mime, s
}

func mimeExtension(mime string) string {
	if _, ext, ok := strings.Cut(mime, "/"); ok && ext != "" {
		return ext
	}
	return "jpeg"
}
