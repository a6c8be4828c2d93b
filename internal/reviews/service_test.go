package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewbar/bubbletea-backend/pkg/db/dbtest"
	"github.com/brewbar/bubbletea-backend/pkg/db/models"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
)

func TestReviewModerationFlow(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB())
	require.NoError(t, err)
	ctx := context.Background()

	user := models.User{Name: "Lan", IsActive: true}
	require.NoError(t, client.DB().Create(&user).Error)
	product := models.Product{Name: "Trà sữa", CategoryID: uuid.New(), BasePrice: 35000, Slug: "tra-sua", IsAvailable: true}
	require.NoError(t, client.DB().Create(&product).Error)

	comment := "  Ngon!  "
	review, err := svc.Create(ctx, user.ID, product.ID, ReviewInput{Rating: 5, Comment: &comment})
	require.NoError(t, err)
	assert.False(t, review.IsApproved)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "Ngon!", *review.Comment)

	pending, err := svc.ListForModeration(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Trà sữa", pending[0].ProductName)
	assert.Equal(t, "Lan", pending[0].UserName)

	approved, err := svc.Approve(ctx, review.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	pending, err = svc.ListForModeration(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Approve(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateValidates(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client.DB())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), uuid.New(), uuid.New(), ReviewInput{Rating: 6})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(context.Background(), uuid.New(), uuid.New(), ReviewInput{Rating: 3})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
