package storage

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"assessment-backend/internal/common/errors"
)

func TestTranslateS3Errors(t *testing.T) {
	store := &S3Store{bucket: "test"}

	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"typed NoSuchKey", &types.NoSuchKey{}, errors.ErrCodeObjectNotFound},
		{"api NoSuchKey", &smithy.GenericAPIError{Code: "NoSuchKey"}, errors.ErrCodeObjectNotFound},
		{"api NotFound", &smithy.GenericAPIError{Code: "NotFound"}, errors.ErrCodeObjectNotFound},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, errors.ErrCodeStorageAccessDenied},
		{"bad key id", &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, errors.ErrCodeStorageAccessDenied},
		{"bad signature", &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, errors.ErrCodeStorageAccessDenied},
		{"other api error", &smithy.GenericAPIError{Code: "SlowDown"}, errors.ErrCodeStorageWriteFailed},
		{"plain transport error", fmt.Errorf("dial tcp: connection refused"), errors.ErrCodeStorageUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.translate("some/key", tt.err)
			assert.Equal(t, tt.want, errors.Code(got))
		})
	}
}

func TestTranslateDrivesFallbackDecision(t *testing.T) {
	store := &S3Store{bucket: "test"}

	// only transport-class failures may activate the fallback mirror
	transport := store.translate("k", fmt.Errorf("no route to host"))
	assert.True(t, errors.IsTransport(transport))

	denied := store.translate("k", &smithy.GenericAPIError{Code: "AccessDenied"})
	assert.False(t, errors.IsTransport(denied))
	assert.False(t, errors.IsNotFound(denied))
}
