package chapters_test

import (
	"encoding/json"
	"net/http"
	"testing"

	apierrors "github.com/chapterhub/chapterhub/internal/app/features/errors"
	"github.com/chapterhub/chapterhub/internal/app/features/chapters"
	chapterstore "github.com/chapterhub/chapterhub/internal/app/store/chapters"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"github.com/chapterhub/chapterhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database) (*chapters.Handler, *testutil.Fixtures) {
	t.Helper()

	h := chapters.NewHandler(chapterstore.New(db),
		apierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func TestServeCreate_RequiresRegionalRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, fx := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateChapter(ctx, "Berlin", "Germany")
	organiser := fx.CreateOrganiser(ctx, "Olivia Organiser", "olivia@test.com", "Berlin")

	body := `{"name":"Hamburg","country":"Germany","lat":53.55,"lng":9.99}`
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/chapters", body, testutil.FromModel(organiser))
	rec := testutil.NewRecorder()
	h.ServeCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeCreate_RejectsDuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, fx := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Gail Admin", "gail@test.com",
		models.RoleGlobalAdmin, models.StatusConfirmed)

	body := `{"name":"Hamburg","country":"Germany","lat":53.55,"lng":9.99}`
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/chapters", body, testutil.FromModel(admin))
	rec := testutil.NewRecorder()
	h.ServeCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	var created models.Chapter
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Name != "Hamburg" || created.Country != "Germany" {
		t.Errorf("unexpected chapter: %+v", created)
	}

	// Same name, different case: still a duplicate.
	body = `{"name":"hamburg","country":"Germany"}`
	req = testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/chapters", body, testutil.FromModel(admin))
	rec = testutil.NewRecorder()
	h.ServeCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeSetInventory_ScopedToOwnChapter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, fx := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	berlin := fx.CreateChapter(ctx, "Berlin", "Germany")
	fx.CreateChapter(ctx, "Lisbon", "Portugal")
	organiser := fx.CreateOrganiser(ctx, "Olivia Organiser", "olivia@test.com", "Berlin")
	outsider := fx.CreateOrganiser(ctx, "Other Organiser", "other@test.com", "Lisbon")

	body := `{"inventory":[{"name":"TV screens","quantity":4},{"name":"Masks","quantity":20}]}`
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/chapters/"+berlin.ID.Hex()+"/inventory", body, testutil.FromModel(outsider))
	req = testutil.WithChiURLParam(req, "id", berlin.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeSetInventory(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/chapters/"+berlin.ID.Hex()+"/inventory", body, testutil.FromModel(organiser))
	req = testutil.WithChiURLParam(req, "id", berlin.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeSetInventory(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := chapterstore.New(db).GetByID(ctx, berlin.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Inventory) != 2 || got.Inventory[0].Quantity != 4 {
		t.Fatalf("inventory not stored: %+v", got.Inventory)
	}
}

func TestServeSetInventory_RejectsNegativeQuantity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, fx := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	berlin := fx.CreateChapter(ctx, "Berlin", "Germany")
	organiser := fx.CreateOrganiser(ctx, "Olivia Organiser", "olivia@test.com", "Berlin")

	body := `{"inventory":[{"name":"Masks","quantity":-1}]}`
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPut,
		"/chapters/"+berlin.ID.Hex()+"/inventory", body, testutil.FromModel(organiser))
	req = testutil.WithChiURLParam(req, "id", berlin.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeSetInventory(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeDelete_RegionalScopedToManagedCountry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, fx := newHandler(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	berlin := fx.CreateChapter(ctx, "Berlin", "Germany")
	lisbon := fx.CreateChapter(ctx, "Lisbon", "Portugal")

	regional := fx.CreateUser(ctx, "Rita Regional", "rita@test.com",
		models.RoleRegionalOrganiser, models.StatusConfirmed)
	country := "Germany"
	if _, err := db.Collection("users").UpdateOne(ctx,
		map[string]any{"_id": regional.ID},
		map[string]any{"$set": map[string]any{"managed_country": country}}); err != nil {
		t.Fatalf("set managed_country: %v", err)
	}
	regional.ManagedCountry = &country

	req := testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/chapters/"+lisbon.ID.Hex(), testutil.FromModel(regional))
	req = testutil.WithChiURLParam(req, "id", lisbon.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/chapters/"+berlin.ID.Hex(), testutil.FromModel(regional))
	req = testutil.WithChiURLParam(req, "id", berlin.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	if _, err := chapterstore.New(db).GetByID(ctx, berlin.ID); err != chapterstore.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
