package address

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

func sampleInput(street string) AddressInput {
	return AddressInput{
		RecipientName: "Nguyễn Văn A",
		PhoneNumber:   "0901234567",
		StreetAddress: street,
		District:      "Quận 1",
		City:          "TP. Hồ Chí Minh",
	}
}

func TestDefaultAddressHandling(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client)
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, sampleInput("1 Lê Lợi"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address becomes default")

	in := sampleInput("2 Nguyễn Huệ")
	in.IsDefault = true
	second, err := svc.Create(ctx, userID, in)
	require.NoError(t, err)

	list, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.False(t, list[1].IsDefault)

	require.NoError(t, svc.Delete(ctx, userID, second.ID))
	promoted, err := svc.Get(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.True(t, promoted.IsDefault)
}

func TestAddressOwnership(t *testing.T) {
	client := dbtest.Open(t)
	svc, err := NewService(client)
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	addr, err := svc.Create(ctx, owner, sampleInput("1 Lê Lợi"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, uuid.New(), addr.ID, sampleInput("3 Hai Bà Trưng"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.Delete(ctx, uuid.New(), addr.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	bad := sampleInput("")
	_, err = svc.Create(ctx, owner, bad)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFormat(t *testing.T) {
	ward := "Phường Bến Nghé"
	got := Format(models.Address{StreetAddress: "1 Lê Lợi", Ward: &ward, District: "Quận 1", City: "TP. Hồ Chí Minh"})
	assert.Equal(t, "1 Lê Lợi, Phường Bến Nghé, Quận 1, TP. Hồ Chí Minh", got)
}
