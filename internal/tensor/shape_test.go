package tensor

import "testing"

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeEqualAbsent(t *testing.T) {
	var absent Shape
	if !absent.Equal(nil) {
		t.Error("absent shape should equal absent shape")
	}
	if absent.Equal(Shape{}) {
		t.Error("absent shape should not equal scalar shape")
	}
	if (Shape{}).Equal(nil) {
		t.Error("scalar shape should not equal absent shape")
	}
	if !(Shape{2, 3}).Equal(Shape{2, 3}) {
		t.Error("equal shapes reported different")
	}
	if absent.Clone() != nil {
		t.Error("clone of absent shape should be nil")
	}
}

func TestShapePrependTail(t *testing.T) {
	s := Shape{2, 3}
	p := s.Prepend(4)
	if !p.Equal(Shape{4, 2, 3}) {
		t.Errorf("Prepend = %v", p)
	}
	if !p.Tail().Equal(s) {
		t.Errorf("Tail = %v", p.Tail())
	}
	if tail := (Shape{7}).Tail(); tail == nil || len(tail) != 0 {
		t.Errorf("Tail of rank-1 shape should be a scalar, got %v", tail)
	}

	defer func() {
		if recover() == nil {
			t.Error("Tail of scalar should panic")
		}
	}()
	Shape{}.Tail()
}

func TestShapeString(t *testing.T) {
	if got := (Shape{2, 8}).String(); got != "[2,8]" {
		t.Errorf("String = %q", got)
	}
	if got := Shape(nil).String(); got != "<nil>" {
		t.Errorf("String of absent = %q", got)
	}
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape(" 2, 8 ")
	if err != nil {
		t.Fatalf("ParseShape: %v", err)
	}
	if !s.Equal(Shape{2, 8}) {
		t.Errorf("ParseShape = %v", s)
	}

	scalar, err := ParseShape("")
	if err != nil || scalar == nil || len(scalar) != 0 {
		t.Errorf("ParseShape(\"\") = %v, %v", scalar, err)
	}

	for _, bad := range []string{"2,x", "0,3", "-1"} {
		if _, err := ParseShape(bad); err == nil {
			t.Errorf("ParseShape(%q) should fail", bad)
		}
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}
	for _, tt := range tests {
		got, broadcast, err := BroadcastShapes(tt.a, tt.b)
		if (err != nil) != tt.wantErr {
			t.Errorf("BroadcastShapes(%v, %v) error = %v", tt.a, tt.b, err)
			continue
		}
		if tt.wantErr {
			continue
		}
		if !got.Equal(tt.want) || broadcast != tt.broadcast {
			t.Errorf("BroadcastShapes(%v, %v) = %v, %v; want %v, %v", tt.a, tt.b, got, broadcast, tt.want, tt.broadcast)
		}
	}
}
