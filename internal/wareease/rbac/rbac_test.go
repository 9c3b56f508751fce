package rbac

import "testing"

func TestHasCapabilityMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		roles      []string
		capability Capability
		want       bool
	}{
		{
			name:       "admin manages accounts",
			roles:      []string{"Admin"},
			capability: CapAccountsManage,
			want:       true,
		},
		{
			name:       "manager cannot manage accounts",
			roles:      []string{"Manager"},
			capability: CapAccountsManage,
			want:       false,
		},
		{
			name:       "manager views reports",
			roles:      []string{"Manager"},
			capability: CapReportsView,
			want:       true,
		},
		{
			name:       "staff cannot view reports",
			roles:      []string{"Staff"},
			capability: CapReportsView,
			want:       false,
		},
		{
			name:       "staff views products",
			roles:      []string{"Staff"},
			capability: CapProductsView,
			want:       true,
		},
		{
			name:       "lowercase role is not recognised",
			roles:      []string{"admin"},
			capability: CapProductsView,
			want:       false,
		},
		{
			name:       "undefined capability denied",
			roles:      []string{"Admin"},
			capability: Capability("made.up"),
			want:       false,
		},
		{
			name:       "empty capability allowed",
			roles:      nil,
			capability: "",
			want:       true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := HasCapability(tc.roles, tc.capability); got != tc.want {
				t.Fatalf("HasCapability(%v, %s) = %v, want %v", tc.roles, tc.capability, got, tc.want)
			}
		})
	}
}

func TestFromClaimsDropsBlanksAndDuplicates(t *testing.T) {
	t.Parallel()

	roles := FromClaims([]string{" Staff ", "", "Staff", "Manager"})
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}
	if roles[0] != RoleStaff || roles[1] != RoleManager {
		t.Fatalf("unexpected roles %v", roles)
	}
	if FromClaims(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestRolesIntersects(t *testing.T) {
	t.Parallel()

	set := Roles{RoleManager, RoleStaff}
	if !set.Intersects(Roles{RoleAdmin, RoleStaff}) {
		t.Fatalf("expected intersection")
	}
	if set.Intersects(Roles{RoleAdmin}) {
		t.Fatalf("expected no intersection")
	}
}
