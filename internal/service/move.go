package service

import (
	"context"
	"io"
	"net/http"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/domain"
)

// MoveCrossConnect relays a cross connect relocation to the Seller.
func (l *Lifecycle) MoveCrossConnect(ctx context.Context, mv *domain.CrossConnectMove, token string) (*domain.MoveResult, error) {
	if err := domain.Validate(mv); err != nil {
		return nil, invalidRequest(err)
	}
	payload, merr := l.mapper.MapMove(mv)
	if merr != nil {
		return nil, merr.APIError()
	}
	res, err := l.seller.MoveOrder(ctx, payload, token)
	if err := callSeller(l.logger, "move order", res, err); err != nil {
		return nil, err
	}
	id, err := l.transactionID(res)
	if err != nil {
		return nil, err
	}
	l.logger.Infow("cross connect move requested", "transaction_id", id)
	return &domain.MoveResult{LatticeTransactionID: id}, nil
}

// Attachment is the answer to an upload.
type Attachment struct {
	AttachmentID string `json:"attachmentId"`
}

// UploadAttachment stores a document, typically a letter of authorisation,
// with the Seller.
func (l *Lifecycle) UploadAttachment(ctx context.Context, filename string, content io.Reader, token string) (*Attachment, error) {
	if filename == "" {
		return nil, apierror.Unprocessable(apierror.MissingProperty, "'file' MUST be provided", "file")
	}
	res, err := l.seller.UploadAttachment(ctx, filename, content, token)
	if err == nil && res.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, apierror.New(http.StatusRequestEntityTooLarge, apierror.AttachmentTooLarge,
			"Attachment exceeds the size accepted by the Seller", "Payload Too Large")
	}
	if err := callSeller(l.logger, "upload attachment", res, err); err != nil {
		return nil, err
	}
	id, merr := l.mapper.AttachmentID(res.Body)
	if merr != nil {
		return nil, merr.APIError()
	}
	l.logger.Infow("attachment uploaded", "attachment_id", id, "filename", filename)
	return &Attachment{AttachmentID: id}, nil
}

// DeleteAttachment removes a previously uploaded document.
func (l *Lifecycle) DeleteAttachment(ctx context.Context, id, token string) error {
	if id == "" {
		return apierror.NotFound("'id' not found").WithPath("attachmentId")
	}
	res, err := l.seller.DeleteAttachment(ctx, id, token)
	if err == nil && res.StatusCode == http.StatusNotFound {
		return apierror.NotFound("'id' not found").WithReason("Attachment not found").WithPath("attachmentId")
	}
	if err := callSeller(l.logger, "delete attachment", res, err); err != nil {
		return err
	}
	l.logger.Infow("attachment deleted", "attachment_id", id)
	return nil
}
