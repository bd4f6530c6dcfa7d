package lot

import "testing"

func TestPlanLots(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		lotSize  int
		want     []int
		wantErr  bool
	}{
		{name: "even split", quantity: 100, lotSize: 25, want: []int{25, 25, 25, 25}},
		{name: "remainder in last lot", quantity: 50, lotSize: 12, want: []int{12, 12, 12, 12, 2}},
		{name: "single lot", quantity: 7, lotSize: 7, want: []int{7}},
		{name: "lot size one", quantity: 3, lotSize: 1, want: []int{1, 1, 1}},
		{name: "zero quantity", quantity: 0, lotSize: 1, wantErr: true},
		{name: "zero lot size", quantity: 10, lotSize: 0, wantErr: true},
		{name: "lot size above quantity", quantity: 10, lotSize: 11, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans, err := PlanLots(tt.quantity, tt.lotSize)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(plans) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(plans), len(tt.want))
			}
			total := 0
			for i, p := range plans {
				if p.LotNumber != i+1 {
					t.Errorf("plans[%d].LotNumber = %d, want %d", i, p.LotNumber, i+1)
				}
				if p.PlannedPieces != tt.want[i] {
					t.Errorf("plans[%d].PlannedPieces = %d, want %d", i, p.PlannedPieces, tt.want[i])
				}
				total += p.PlannedPieces
			}
			if total != tt.quantity {
				t.Errorf("total = %d, want %d", total, tt.quantity)
			}
		})
	}
}
