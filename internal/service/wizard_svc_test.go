package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdir_listing/internal/model"
	"bizdir_listing/internal/session"
	"bizdir_listing/internal/session/sessiontest"
	"bizdir_listing/internal/wizard"
	"bizdir_listing/pkg/directory"
)

type fakeFetcher struct {
	listing *directory.PersistedListing
	err     error
}

func (f *fakeFetcher) GetListing(ctx context.Context, id string) (*directory.PersistedListing, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.listing, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	seq     int
	deleted []string
}

func (u *fakeUploader) UploadImage(ctx context.Context, slot string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seq++
	if u.seq == 1 {
		return "https://cdn.test/" + slot + "/x.png", nil
	}
	return fmt.Sprintf("https://cdn.test/%s/x%d.png", slot, u.seq), nil
}

func (u *fakeUploader) DeleteImage(ctx context.Context, url string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, url)
	return nil
}

func testSession(t *testing.T, userID string) session.Session {
	t.Helper()
	return sessiontest.New(userID)
}

func newWizardService(api *fakeListingAPI, fetcher *fakeFetcher) *WizardService {
	return NewWizardService(fetcher, NewSubmissionService(api, nil, nil, nil), &fakeUploader{}, time.Hour, nil)
}

// fillCreate 填写完整的商品列表
func fillCreate(t *testing.T, svc *WizardService, sess session.Session, id string) {
	t.Helper()
	updates := []struct {
		path  string
		value interface{}
	}{
		{wizard.PathBusinessTypes, []interface{}{"Product"}},
		{"name", "Corner Bakery"},
		{"phone", "+44 20 7946 0958"},
		{"email", "hello@cornerbakery.co.uk"},
		{"shortDescription", "Sourdough and pastries baked daily."},
		{"productData.categories.primary", "Bakery"},
		{"productData.deliveryArea.type", "radius"},
		{"productData.deliveryArea.value", "5"},
	}
	for _, u := range updates {
		_, err := svc.UpdateField(sess, id, u.path, u.value)
		require.NoError(t, err, u.path)
	}
}

func TestWizardService_CreateFlow(t *testing.T) {
	api := &fakeListingAPI{resp: &directory.ListingMutationResp{ID: "lst_new"}, status: 201}
	svc := newWizardService(api, &fakeFetcher{})
	sess := testSession(t, "u1")
	ctx := context.Background()

	view, err := svc.Start(ctx, sess, "")
	require.NoError(t, err)
	assert.Equal(t, FormModeCreate, view.Mode)
	assert.Equal(t, 0, view.Step)
	id := view.SessionID

	// 未填写时提交被拒绝，且不调用后端
	_, err = svc.Submit(ctx, sess, id)
	assert.ErrorIs(t, err, wizard.ErrStepInvalid)
	assert.Equal(t, 0, api.calls())

	fillCreate(t, svc, sess, id)
	view, err = svc.Advance(sess, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Step)
	view, err = svc.Retreat(sess, id)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Step)

	res, err := svc.Submit(ctx, sess, id)
	require.NoError(t, err)
	assert.Equal(t, "lst_new", res.ListingID)

	// 成功后会话被丢弃
	_, err = svc.Get(sess, id)
	assert.ErrorIs(t, err, ErrFormSessionNotFound)
}

func TestWizardService_EditFlowSendsTouchedOnly(t *testing.T) {
	api := &fakeListingAPI{resp: &directory.ListingMutationResp{ID: "lst_1"}, status: 200}
	svc := newWizardService(api, &fakeFetcher{listing: hybridListing()})
	sess := testSession(t, "u1")
	ctx := context.Background()

	view, err := svc.Start(ctx, sess, "lst_1")
	require.NoError(t, err)
	assert.Equal(t, FormModeEdit, view.Mode)
	assert.Equal(t, "Corner Bakery", view.Data.Name)

	_, err = svc.UpdateField(sess, view.SessionID, "email", "orders@cornerbakery.co.uk")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, sess, view.SessionID)
	require.NoError(t, err)
	require.Len(t, api.updates, 1)
	body := api.updates[0]
	assert.Equal(t, "lst_1", body.ID)
	require.NotNil(t, body.Email)
	assert.Equal(t, "orders@cornerbakery.co.uk", *body.Email)
	assert.Nil(t, body.Name)
	assert.Nil(t, body.ProductData)
	assert.Nil(t, body.ServiceData)
}

func TestWizardService_StartFetchFailure(t *testing.T) {
	svc := newWizardService(&fakeListingAPI{}, &fakeFetcher{err: directory.ErrListingNotFound})
	_, err := svc.Start(context.Background(), testSession(t, "u1"), "missing")
	assert.ErrorIs(t, err, directory.ErrListingNotFound)
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestWizardService_FailedSubmitKeepsData(t *testing.T) {
	api := &fakeListingAPI{status: 500, err: &directory.APIError{StatusCode: 500, Message: "boom"}}
	svc := newWizardService(api, &fakeFetcher{})
	sess := testSession(t, "u1")
	ctx := context.Background()

	view, err := svc.Start(ctx, sess, "")
	require.NoError(t, err)
	fillCreate(t, svc, sess, view.SessionID)

	_, err = svc.Submit(ctx, sess, view.SessionID)
	assert.ErrorIs(t, err, ErrSubmissionFailed)

	got, err := svc.Get(sess, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Corner Bakery", got.Data.Name)

	// 重试成功
	api.err = nil
	api.resp = &directory.ListingMutationResp{ID: "lst_2"}
	res, err := svc.Submit(ctx, sess, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "lst_2", res.ListingID)
	assert.Equal(t, 2, api.calls())
}

func TestWizardService_ConcurrentSubmitRejected(t *testing.T) {
	api := &fakeListingAPI{
		resp:    &directory.ListingMutationResp{ID: "lst_3"},
		status:  201,
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	svc := newWizardService(api, &fakeFetcher{})
	sess := testSession(t, "u1")
	ctx := context.Background()

	view, err := svc.Start(ctx, sess, "")
	require.NoError(t, err)
	fillCreate(t, svc, sess, view.SessionID)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, sess, view.SessionID)
		done <- err
	}()
	<-api.entered

	_, err = svc.Submit(ctx, sess, view.SessionID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(api.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.calls())
}

func TestWizardService_Ownership(t *testing.T) {
	svc := newWizardService(&fakeListingAPI{}, &fakeFetcher{})
	owner := testSession(t, "u1")
	other := testSession(t, "u2")

	view, err := svc.Start(context.Background(), owner, "")
	require.NoError(t, err)

	_, err = svc.Get(other, view.SessionID)
	assert.ErrorIs(t, err, ErrFormSessionForbidden)
	assert.ErrorIs(t, svc.Discard(other, view.SessionID), ErrFormSessionForbidden)

	require.NoError(t, svc.Discard(owner, view.SessionID))
	_, err = svc.Get(owner, view.SessionID)
	assert.ErrorIs(t, err, ErrFormSessionNotFound)
}

func TestWizardService_JumpAndUpload(t *testing.T) {
	svc := newWizardService(&fakeListingAPI{}, &fakeFetcher{})
	sess := testSession(t, "u1")
	ctx := context.Background()

	view, err := svc.Start(ctx, sess, "")
	require.NoError(t, err)
	id := view.SessionID

	_, err = svc.JumpTo(sess, id, 0, wizard.StepBranding)
	assert.True(t, errors.Is(err, wizard.ErrJumpBlocked))

	fillCreate(t, svc, sess, id)
	view, err = svc.JumpTo(sess, id, 0, wizard.StepBranding)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepBranding, view.StepID)

	view, err = svc.UploadImage(ctx, sess, id, ImageSlotLogo, pngHeader)
	require.NoError(t, err)
	require.NotNil(t, view.Data.Logo)
	assert.Equal(t, "https://cdn.test/logo/x.png", view.Data.Logo.Ref)

	_, err = svc.UploadImage(ctx, sess, id, "avatar", pngHeader)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestWizardService_SweepExpired(t *testing.T) {
	svc := NewWizardService(&fakeFetcher{}, nil, nil, time.Nanosecond, nil)
	_, err := svc.Start(context.Background(), testSession(t, "u1"), "")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, svc.SweepExpired())
	assert.Equal(t, 0, svc.ActiveSessions())
}

func TestWizardService_BranchSwitchKeepsData(t *testing.T) {
	svc := newWizardService(&fakeListingAPI{}, &fakeFetcher{listing: hybridListing()})
	sess := testSession(t, "u1")

	view, err := svc.Start(context.Background(), sess, "lst_1")
	require.NoError(t, err)
	view, err = svc.UpdateField(sess, view.SessionID, wizard.PathBusinessTypes, []interface{}{"Product"})
	require.NoError(t, err)

	pd, ok := view.Data.ProductData()
	require.True(t, ok)
	assert.Equal(t, "Bakery", pd.Categories.Primary)
	_, ok = view.Data.ServiceData()
	assert.False(t, ok)
	assert.Equal(t, model.BusinessTypes{model.BusinessTypeProduct}, view.Data.BusinessTypes())
}

func TestWizardService_ReplacedUploadIsDeleted(t *testing.T) {
	uploader := &fakeUploader{}
	fetcher := &fakeFetcher{listing: hybridListing()}
	svc := NewWizardService(fetcher, NewSubmissionService(&fakeListingAPI{}, nil, nil, nil), uploader, time.Hour, nil)
	sess := testSession(t, "u1")
	ctx := context.Background()

	// 编辑已有列表：原 logo 不属于本会话，替换时不删除
	view, err := svc.Start(ctx, sess, "lst_1")
	require.NoError(t, err)
	original := view.Data.Logo.Ref
	require.NotEmpty(t, original)

	view, err = svc.UploadImage(ctx, sess, view.SessionID, ImageSlotLogo, pngHeader)
	require.NoError(t, err)
	first := view.Data.Logo.Ref
	assert.NotEqual(t, original, first)
	assert.Empty(t, uploader.deleted)

	// 再次上传：本会话上一次上传的图片被删除
	view, err = svc.UploadImage(ctx, sess, view.SessionID, ImageSlotLogo, pngHeader)
	require.NoError(t, err)
	assert.NotEqual(t, first, view.Data.Logo.Ref)
	assert.Equal(t, []string{first}, uploader.deleted)
}
