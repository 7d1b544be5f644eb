package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIdentity_Owns(t *testing.T) {
	car := &Car{ID: "c1", User: "65A1F0C2E4B0A1B2C3D4E5F6"}

	if !(Identity{UserID: "65a1f0c2e4b0a1b2c3d4e5f6"}).Owns(car) {
		t.Error("owner with different hex case should own the car")
	}
	if (Identity{UserID: "u2"}).Owns(car) {
		t.Error("other user should not own the car")
	}
	if (Identity{UserID: "u1"}).Owns(nil) {
		t.Error("nobody owns a nil car")
	}
}

func TestUser_PasswordNotSerialized(t *testing.T) {
	data, err := json.Marshal(&User{ID: "u1", Email: "a@b.c", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Errorf("password leaked: %s", data)
	}
}

func TestCarDetails_OwnerReplacesReference(t *testing.T) {
	d := CarDetails{
		Car:  Car{ID: "c1", Make: "Saab", User: "u1"},
		User: &User{ID: "u1", Username: "sven"},
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out struct {
		Make string `json:"make"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.Make != "Saab" || out.User.Username != "sven" {
		t.Errorf("got %s", data)
	}
}

func TestUser_Clone(t *testing.T) {
	u := &User{ID: "u1", FavoriteCars: []string{"c1"}}
	c := u.Clone()
	c.FavoriteCars[0] = "c2"
	if u.FavoriteCars[0] != "c1" {
		t.Error("Clone shares the favorites slice")
	}
	if !u.HasFavorite("C1") {
		t.Error("HasFavorite should compare canonical ids")
	}
}
