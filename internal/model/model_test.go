package model

import "testing"

func TestEffectiveStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		stored   RequestStatus
		contract *ContractRecord
		want     RequestStatus
	}{
		{"no contract, pending", RequestPending, nil, RequestPending},
		{"no contract, completed", RequestCompleted, nil, RequestCompleted},
		{"empty status defaults pending", "", nil, RequestPending},
		{"cancelled wins over verified contract", RequestCancelled, &ContractRecord{Status: ContractVerified}, RequestCancelled},
		{"pending contract forces pending", RequestCompleted, &ContractRecord{Status: ContractPending}, RequestPending},
		{"rejected contract forces pending", RequestCompleted, &ContractRecord{Status: ContractRejected}, RequestPending},
		{"verified contract keeps completed", RequestCompleted, &ContractRecord{Status: ContractVerified}, RequestCompleted},
		{"verified contract keeps pending", RequestPending, &ContractRecord{Status: ContractVerified}, RequestPending},
	}
	for _, c := range cases {
		req := &ReferenceRequest{Status: c.stored}
		if got := EffectiveStatus(req, c.contract); got != c.want {
			t.Fatalf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRoleAndContractStatusValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleTenant, RoleLandlord, RoleAdmin} {
		if !r.Valid() {
			t.Fatalf("role %q must be valid", r)
		}
	}
	if Role("root").Valid() {
		t.Fatalf("unknown role accepted")
	}

	for _, s := range []ContractStatus{ContractPending, ContractVerified, ContractRejected} {
		if !s.Valid() {
			t.Fatalf("status %q must be valid", s)
		}
	}
	if ContractStatus("maybe").Valid() {
		t.Fatalf("unknown contract status accepted")
	}
}
