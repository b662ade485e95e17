package store

import (
	"testing"

	"github.com/homeboardhq/homeboard/internal/model"
)

func TestFamilyMemberCreateAndList(t *testing.T) {
	db := setupTestDB(t)
	fam, admin := seedFamily(t, db)
	s := NewFamilyMemberStore(db)

	kid, err := s.Create(fam.ID, nil, "Charlie", model.RoleMember, "green")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if kid.Role != model.RoleMember {
		t.Errorf("role = %q, want member", kid.Role)
	}
	if kid.UserID != nil {
		t.Errorf("user_id = %v, want nil for a profile-only member", *kid.UserID)
	}
	if !kid.IsActive {
		t.Error("new members should be active")
	}

	members, err := s.List(fam.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("len = %d, want 2", len(members))
	}
	if members[0].ID != admin.ID {
		t.Errorf("first member = %s, want creation order (admin %s first)", members[0].ID, admin.ID)
	}
}

func TestFamilyMemberGetByUserID(t *testing.T) {
	db := setupTestDB(t)
	fam, _ := seedFamily(t, db)
	s := NewFamilyMemberStore(db)

	u, err := NewUserStore(db).Create("bob@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	linked, err := s.Create(fam.ID, &u.ID, "Bob", model.RoleMember, "teal")
	if err != nil {
		t.Fatalf("create linked member: %v", err)
	}

	got, err := s.GetByUserID(fam.ID, u.ID)
	if err != nil {
		t.Fatalf("get by user id: %v", err)
	}
	if got == nil || got.ID != linked.ID {
		t.Fatalf("got = %v, want member %s", got, linked.ID)
	}

	got, err = s.GetByUserID(fam.ID, "missing")
	if err != nil {
		t.Fatalf("get by user id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestFamilyMemberUpdateAndSetRole(t *testing.T) {
	db := setupTestDB(t)
	fam, _ := seedFamily(t, db)
	s := NewFamilyMemberStore(db)

	m, err := s.Create(fam.ID, nil, "Charlie", model.RoleMember, "green")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	updated, err := s.Update(fam.ID, m.ID, "Charles", "purple", false)
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if updated.Name != "Charles" || updated.AvatarColor != "purple" || updated.IsActive {
		t.Errorf("updated = %+v, want renamed, recolored, deactivated", updated)
	}

	promoted, err := s.SetRole(fam.ID, m.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if promoted.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", promoted.Role)
	}
}

func TestFamilyMemberDeleteUnassignsTasks(t *testing.T) {
	db := setupTestDB(t)
	fam, admin := seedFamily(t, db)
	members := NewFamilyMemberStore(db)
	tasks := NewTaskStore(db)

	m, err := members.Create(fam.ID, nil, "Charlie", model.RoleMember, "green")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	task, err := tasks.Create(fam.ID, "Dishes", "", &m.ID, admin.ID, nil, model.CategoryTask, model.PriorityMedium)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := members.Delete(fam.ID, m.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	got, err := tasks.GetByID(fam.ID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("task should survive its assignee")
	}
	if got.AssigneeID != nil {
		t.Errorf("assignee_id = %v, want nil after member delete", *got.AssigneeID)
	}
}
