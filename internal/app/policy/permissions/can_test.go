package permissions_test

import (
	"testing"

	"github.com/chapterhub/chapterhub/internal/app/policy/permissions"
	"github.com/chapterhub/chapterhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func user(role models.Role) *models.User {
	return &models.User{
		ID:   primitive.NewObjectID(),
		Name: "Test User",
		Role: role,
	}
}

func strptr(s string) *string { return &s }

func testChapters() []models.Chapter {
	return []models.Chapter{
		{Name: "Berlin", Country: "Germany"},
		{Name: "Hamburg", Country: "Germany"},
		{Name: "Paris", Country: "France"},
	}
}

func TestCan_NilUser_AlwaysDenied(t *testing.T) {
	if permissions.Can(nil, permissions.ViewMemberDirectory, permissions.None{}) {
		t.Error("nil user should be denied everything")
	}
	if permissions.Can(nil, permissions.EditEvent, permissions.EventContext{}) {
		t.Error("nil user should be denied everything")
	}
}

func TestCan_Godmode_AlwaysAllowed(t *testing.T) {
	god := user(models.RoleGodmode)

	// Even with missing context, Godmode is allowed.
	if !permissions.Can(god, permissions.ManageEventParticipants, permissions.None{}) {
		t.Error("godmode should bypass contextual rules")
	}
	if !permissions.Can(god, permissions.DeleteChapter, permissions.ChapterContext{}) {
		t.Error("godmode should bypass chapter containment")
	}
}

func TestCan_HierarchyMonotonicity_TableOnlyPermissions(t *testing.T) {
	// For permissions governed purely by the grant table, any role granted
	// to a lower level must also be granted to every higher level.
	tablePerms := []permissions.Permission{
		permissions.ViewMemberDirectory,
		permissions.ViewManagementDashboard,
		permissions.CreateEvent,
		permissions.ViewAnalytics,
	}

	for _, perm := range tablePerms {
		var grantedAt = -1
		for _, role := range models.AllRoles {
			allowed := permissions.Can(user(role), perm, permissions.None{})
			if allowed && grantedAt == -1 {
				grantedAt = role.Level()
			}
			if grantedAt != -1 && role.Level() > grantedAt && !allowed {
				t.Errorf("%s: granted at level %d but denied at higher level %d", perm, grantedAt, role.Level())
			}
		}
	}
}

func TestCan_ActivistAndApplicant_HaveNoManagementPermissions(t *testing.T) {
	for _, role := range []models.Role{models.RoleApplicant, models.RoleActivist} {
		u := user(role)
		if permissions.Can(u, permissions.ViewMemberDirectory, permissions.None{}) {
			t.Errorf("%s should not see the member directory", role)
		}
		if permissions.Can(u, permissions.CreateEvent, permissions.None{}) {
			t.Errorf("%s should not create events", role)
		}
	}
}

func TestCan_EditEvent_OrganizerSelfOwnership(t *testing.T) {
	// An activist with no organiser scope can still edit an event they
	// organized... except activists have no base grant for EditEvent.
	// Self-ownership applies within the granted role set: a chapter
	// organiser editing their own event outside their chapters.
	organiser := user(models.RoleChapterOrganiser)
	organiser.OrganiserOf = []string{"Berlin"}

	event := &models.CubeEvent{
		ID:          primitive.NewObjectID(),
		City:        "Paris", // not one of their chapters
		OrganizerID: organiser.ID,
	}

	if !permissions.Can(organiser, permissions.EditEvent, permissions.EventContext{Event: event}) {
		t.Error("event organizer should always be allowed to edit their own event")
	}
}

func TestCan_EditEvent_ChapterContainment(t *testing.T) {
	co := user(models.RoleChapterOrganiser)
	co.OrganiserOf = []string{"Berlin"}

	berlinEvent := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Berlin", OrganizerID: primitive.NewObjectID()}
	hamburgEvent := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Hamburg", OrganizerID: primitive.NewObjectID()}

	if !permissions.Can(co, permissions.EditEvent, permissions.EventContext{Event: berlinEvent}) {
		t.Error("chapter organiser should manage events in their chapter")
	}
	if permissions.Can(co, permissions.EditEvent, permissions.EventContext{Event: hamburgEvent}) {
		t.Error("chapter organiser should not manage events outside their chapters")
	}
}

func TestCan_EditEvent_RegionalContainment(t *testing.T) {
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")

	chapters := testChapters()
	berlinEvent := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Berlin", OrganizerID: primitive.NewObjectID()}
	parisEvent := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Paris", OrganizerID: primitive.NewObjectID()}

	if !permissions.Can(ro, permissions.EditEvent, permissions.EventContext{Event: berlinEvent, AllChapters: chapters}) {
		t.Error("regional organiser should manage events in their country")
	}
	if permissions.Can(ro, permissions.EditEvent, permissions.EventContext{Event: parisEvent, AllChapters: chapters}) {
		t.Error("regional organiser should not manage events outside their country")
	}
}

func TestCan_ManageEventParticipants_MissingContext_FailsClosed(t *testing.T) {
	chapters := testChapters()
	event := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Berlin", OrganizerID: primitive.NewObjectID()}

	// No event at all.
	for _, role := range []models.Role{models.RoleChapterOrganiser, models.RoleRegionalOrganiser, models.RoleGlobalAdmin} {
		if permissions.Can(user(role), permissions.ManageEventParticipants, permissions.EventContext{AllChapters: chapters}) {
			t.Errorf("%s: missing event must deny", role)
		}
	}

	// Regional organiser without the chapter lookup cannot prove containment.
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")
	if permissions.Can(ro, permissions.ManageEventParticipants, permissions.EventContext{Event: event}) {
		t.Error("regional organiser without allChapters must be denied")
	}

	// Wrong context family also denies.
	if permissions.Can(ro, permissions.ManageEventParticipants, permissions.None{}) {
		t.Error("wrong context type must deny")
	}
}

func TestCan_CreateAnnouncement_GlobalScope(t *testing.T) {
	ctx := permissions.AnnouncementContext{Scope: models.ScopeGlobal}

	if permissions.Can(user(models.RoleRegionalOrganiser), permissions.CreateAnnouncement, ctx) {
		t.Error("regional organiser cannot post globally")
	}
	if !permissions.Can(user(models.RoleGlobalAdmin), permissions.CreateAnnouncement, ctx) {
		t.Error("global admin should post globally")
	}
}

func TestCan_CreateAnnouncement_RegionalScope(t *testing.T) {
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")

	if !permissions.Can(ro, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeRegional, Country: "Germany"}) {
		t.Error("regional organiser should post to their own region")
	}
	if permissions.Can(ro, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeRegional, Country: "France"}) {
		t.Error("regional organiser should not post to another region")
	}
}

func TestCan_CreateAnnouncement_ChapterScope(t *testing.T) {
	co := user(models.RoleChapterOrganiser)
	co.OrganiserOf = []string{"Berlin"}

	if !permissions.Can(co, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeChapter, Chapter: "Berlin"}) {
		t.Error("chapter organiser should post to their chapter")
	}
	if permissions.Can(co, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeChapter, Chapter: "Hamburg"}) {
		t.Error("chapter organiser should not post to a chapter they do not organise")
	}
}

func TestCan_CreateAnnouncement_ChapterScope_RegionalOrganiser(t *testing.T) {
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")
	chapters := testChapters()

	if !permissions.Can(ro, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeChapter, Chapter: "Hamburg", AllChapters: chapters}) {
		t.Error("regional organiser should post to chapters in their country")
	}
	if permissions.Can(ro, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeChapter, Chapter: "Paris", AllChapters: chapters}) {
		t.Error("regional organiser should not post to chapters outside their country")
	}
	if permissions.Can(ro, permissions.CreateAnnouncement, permissions.AnnouncementContext{Scope: models.ScopeChapter, Chapter: "Hamburg"}) {
		t.Error("missing chapter lookup must fail closed")
	}
}

func TestCan_ManageTargetUser_HierarchyAndContainment(t *testing.T) {
	chapters := testChapters()

	co := user(models.RoleChapterOrganiser)
	co.OrganiserOf = []string{"Berlin"}

	inChapter := user(models.RoleActivist)
	inChapter.Chapters = []string{"Berlin"}
	outOfChapter := user(models.RoleActivist)
	outOfChapter.Chapters = []string{"Paris"}
	peer := user(models.RoleChapterOrganiser)
	peer.Chapters = []string{"Berlin"}

	if !permissions.Can(co, permissions.EditUserRoles, permissions.TargetUserContext{Target: inChapter, AllChapters: chapters}) {
		t.Error("organiser should manage an activist in their chapter")
	}
	if permissions.Can(co, permissions.EditUserRoles, permissions.TargetUserContext{Target: outOfChapter, AllChapters: chapters}) {
		t.Error("organiser should not manage activists outside their chapters")
	}
	if permissions.Can(co, permissions.EditUserRoles, permissions.TargetUserContext{Target: peer, AllChapters: chapters}) {
		t.Error("organiser should not manage a same-level peer")
	}
}

func TestCan_ManageTargetUser_RegionalResolvesChapterCountries(t *testing.T) {
	chapters := testChapters()

	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")

	german := user(models.RoleActivist)
	german.Chapters = []string{"Hamburg"}
	french := user(models.RoleActivist)
	french.Chapters = []string{"Paris"}

	if !permissions.Can(ro, permissions.DeleteUser, permissions.TargetUserContext{Target: german, AllChapters: chapters}) {
		t.Error("regional organiser should manage members in their country")
	}
	if permissions.Can(ro, permissions.DeleteUser, permissions.TargetUserContext{Target: french, AllChapters: chapters}) {
		t.Error("regional organiser should not manage members outside their country")
	}
	if permissions.Can(ro, permissions.DeleteUser, permissions.TargetUserContext{Target: german}) {
		t.Error("missing chapter lookup must fail closed")
	}
}

func TestCan_VerifyUser_ConfirmedTargetDenied(t *testing.T) {
	admin := user(models.RoleGlobalAdmin)
	confirmed := user(models.RoleActivist)
	confirmed.OnboardingStatus = models.StatusConfirmed

	if permissions.Can(admin, permissions.VerifyUser, permissions.TargetUserContext{Target: confirmed}) {
		t.Error("already confirmed member cannot be re-verified")
	}

	pending := user(models.RoleApplicant)
	pending.OnboardingStatus = models.StatusPendingApplicationReview
	if !permissions.Can(admin, permissions.VerifyUser, permissions.TargetUserContext{Target: pending}) {
		t.Error("global admin should verify a pending applicant")
	}
}

func TestCan_AwardBadge_NeverToSelf(t *testing.T) {
	admin := user(models.RoleGlobalAdmin)
	if permissions.Can(admin, permissions.AwardBadge, permissions.TargetUserContext{Target: admin}) {
		t.Error("nobody awards badges to themselves")
	}
}

func TestCan_DeleteChapter_ChapterOrganiserAlwaysDenied(t *testing.T) {
	co := user(models.RoleChapterOrganiser)
	co.OrganiserOf = []string{"Berlin"}

	ctx := permissions.ChapterContext{ChapterName: "Berlin", AllChapters: testChapters()}
	if permissions.Can(co, permissions.DeleteChapter, ctx) {
		t.Error("chapter organisers cannot delete chapters, even their own")
	}
	if !permissions.Can(co, permissions.EditChapter, ctx) {
		t.Error("chapter organisers can edit their own chapter")
	}
}

func TestCan_ManageChapter_UnknownChapterDenied(t *testing.T) {
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")

	ctx := permissions.ChapterContext{ChapterName: "Atlantis", AllChapters: testChapters()}
	if permissions.Can(ro, permissions.EditChapter, ctx) {
		t.Error("unknown chapter must deny")
	}
}

func TestCan_ExampleScenario_RegionalOrganiserEventAccess(t *testing.T) {
	ro := user(models.RoleRegionalOrganiser)
	ro.ManagedCountry = strptr("Germany")
	chapters := []models.Chapter{
		{Name: "Berlin", Country: "Germany"},
		{Name: "Paris", Country: "France"},
	}

	berlin := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Berlin", OrganizerID: primitive.NewObjectID()}
	paris := &models.CubeEvent{ID: primitive.NewObjectID(), City: "Paris", OrganizerID: primitive.NewObjectID()}

	if !permissions.Can(ro, permissions.EditEvent, permissions.EventContext{Event: berlin, AllChapters: chapters}) {
		t.Error("expected allow for event in managed country")
	}
	if permissions.Can(ro, permissions.EditEvent, permissions.EventContext{Event: paris, AllChapters: chapters}) {
		t.Error("expected deny for event outside managed country")
	}
}
