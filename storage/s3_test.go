package storage

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestExpiredKeys(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	objects := []types.Object{
		{Key: aws.String("b.zip"), LastModified: aws.Time(base.Add(2 * time.Hour))},
		{Key: aws.String("a.zip"), LastModified: aws.Time(base)},
		{Key: aws.String("c.zip"), LastModified: aws.Time(base.Add(4 * time.Hour))},
		{Key: aws.String("nodate.zip")},
	}

	assert.Equal(t, []string{"a.zip", "nodate.zip"}, expiredKeys(objects, 2))
	assert.Nil(t, expiredKeys(objects, 4))
	assert.Len(t, expiredKeys(objects, -1), 4)
}
