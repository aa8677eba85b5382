package model

const (
	AttachmentsTable = "ChatAttachments"
)

type AttachmentItem struct {
	AttachmentKey string `dynamodbav:"attachmentKey"`
	Room          string `dynamodbav:"room"`
	Name          string `dynamodbav:"name"`
	ContentType   string `dynamodbav:"contentType"`
	Size          int64  `dynamodbav:"size"`
	UploadedBy    string `dynamodbav:"uploadedBy,omitempty"`
	Data          []byte `dynamodbav:"data"`
	CreatedAt     string `dynamodbav:"createdAt"`
	ExpiresAt     int64  `dynamodbav:"expiresAt,omitempty"`
}

func NewAttachmentItem(a Attachment, data []byte, expiresAt int64) AttachmentItem {
	return AttachmentItem{
		AttachmentKey: a.Key,
		Room:          a.Room,
		Name:          a.Name,
		ContentType:   a.ContentType,
		Size:          a.Size,
		UploadedBy:    a.UploadedBy,
		Data:          data,
		CreatedAt:     a.CreatedAt,
		ExpiresAt:     expiresAt,
	}
}

func (i AttachmentItem) Attachment() Attachment {
	return Attachment{
		Key:         i.AttachmentKey,
		Room:        i.Room,
		Name:        i.Name,
		ContentType: i.ContentType,
		Size:        i.Size,
		UploadedBy:  i.UploadedBy,
		CreatedAt:   i.CreatedAt,
	}
}
