package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/engineconf"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/link"
	"github.com/firefly-engineering/firefly-forage/packages/vless-ctl/internal/system"
)

const testDir = "/profiles"

func testDoc(t *testing.T, host string) *engineconf.Document {
	t.Helper()
	ep, err := link.Parse("vless://123e4567-e89b-12d3-a456-426614174000@" + host + ":443?type=tcp&sni=" + host + "&pbk=KEY&sid=01")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return engineconf.Synthesize(ep)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MyProfile", "MyProfile"},
		{"  padded  ", "padded"},
		{"a/b\\c:d", "abcd"},
		{"Frankfurt #2 [fast]", "Frankfurt 2 [fast]"},
		{"(eu)-node_1", "(eu)-node_1"},
		{"🇩🇪 Германия", "Германия"},
		{"../../etc/passwd", "etcpasswd"},
		{"日本 東京", "日本 東京"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Sanitize(got); again != got {
				t.Errorf("Sanitize is not stable: %q -> %q", got, again)
			}
		})
	}
}

func TestStore_Add(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))

	p, err := store.Add("My/Profile", testDoc(t, "example.com"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}

	if p.Name != "MyProfile" {
		t.Errorf("Name = %q, want %q", p.Name, "MyProfile")
	}
	if p.Path != "/profiles/MyProfile.json" {
		t.Errorf("Path = %q, want %q", p.Path, "/profiles/MyProfile.json")
	}
	if p.Summary.Server != "example.com" || p.Summary.Port != 443 {
		t.Errorf("Summary = %+v", p.Summary)
	}

	data, ok := mockFS.GetFile(p.Path)
	if !ok {
		t.Fatal("profile file was not written")
	}
	if !strings.Contains(string(data), `"address": "example.com"`) {
		t.Errorf("file content missing server address:\n%s", data)
	}

	got, err := store.Get("MyProfile")
	if err != nil || got != p {
		t.Errorf("Get = %v, %v; want the added profile", got, err)
	}
}

func TestStore_Add_EmptyName(t *testing.T) {
	store := NewStore(testDir, WithFileSystem(system.NewMockFS()))

	_, err := store.Add("@@@", testDoc(t, "example.com"))
	if !errors.HasCode(err, errors.ExitFormat) {
		t.Errorf("Add error = %v, want format error", err)
	}
	if len(store.List()) != 0 {
		t.Error("store should be unchanged")
	}
}

func TestStore_Add_Duplicate(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))

	if _, err := store.Add("MyProfile", testDoc(t, "a.example")); err != nil {
		t.Fatalf("first Add error: %v", err)
	}

	_, err := store.Add("MyProfile", testDoc(t, "b.example"))
	if !errors.HasCode(err, errors.ExitDuplicateProfile) {
		t.Fatalf("second Add error = %v, want duplicate", err)
	}

	p, _ := store.Get("MyProfile")
	if p.Summary.Server != "a.example" {
		t.Errorf("existing profile was replaced: server = %q", p.Summary.Server)
	}
	data, _ := mockFS.GetFile("/profiles/MyProfile.json")
	if !strings.Contains(string(data), "a.example") {
		t.Error("existing file was overwritten")
	}
}

func TestStore_Add_DuplicateOnDisk(t *testing.T) {
	mockFS := system.NewMockFS()
	mockFS.AddFile("/profiles/Existing.json", []byte("{}"))
	store := NewStore(testDir, WithFileSystem(mockFS))

	_, err := store.Add("Existing", testDoc(t, "example.com"))
	if !errors.HasCode(err, errors.ExitDuplicateProfile) {
		t.Errorf("Add error = %v, want duplicate", err)
	}
	data, _ := mockFS.GetFile("/profiles/Existing.json")
	if string(data) != "{}" {
		t.Error("file on disk was overwritten")
	}
}

func TestStore_Add_WriteFailure(t *testing.T) {
	mockFS := system.NewMockFS()
	mockFS.WriteFileErr = fs.ErrPermission
	store := NewStore(testDir, WithFileSystem(mockFS))

	_, err := store.Add("MyProfile", testDoc(t, "example.com"))
	if !errors.HasCode(err, errors.ExitPersistence) {
		t.Fatalf("Add error = %v, want persistence error", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("persistence error should wrap the cause")
	}
	if _, err := store.Get("MyProfile"); err == nil {
		t.Error("profile should not be registered after a failed write")
	}
}

func TestStore_LoadAll(t *testing.T) {
	mockFS := system.NewMockFS()
	writer := NewStore(testDir, WithFileSystem(mockFS))
	for _, name := range []string{"beta", "alpha"} {
		if _, err := writer.Add(name, testDoc(t, name+".example")); err != nil {
			t.Fatalf("Add(%s) error: %v", name, err)
		}
	}
	mockFS.AddFile("/profiles/broken.json", []byte("{not json"))
	mockFS.AddFile("/profiles/empty.json", []byte(`{"outbounds": []}`))
	mockFS.AddFile("/profiles/notes.txt", []byte("ignored"))
	mockFS.AddDir("/profiles/sub.json")

	store := NewStore(testDir, WithFileSystem(mockFS))
	profiles, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}

	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	if fmt.Sprint(names) != "[alpha beta]" {
		t.Errorf("names = %v, want [alpha beta]", names)
	}
	if profiles[0].Summary.Server != "alpha.example" {
		t.Errorf("alpha server = %q", profiles[0].Summary.Server)
	}

	again, err := store.LoadAll()
	if err != nil {
		t.Fatalf("second LoadAll error: %v", err)
	}
	if len(again) != len(profiles) {
		t.Errorf("second LoadAll returned %d profiles, want %d", len(again), len(profiles))
	}
}

func TestStore_LoadAll_ReplacesRegistry(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))
	p, err := store.Add("gone", testDoc(t, "example.com"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	mockFS.Remove(p.Path)

	profiles, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("LoadAll = %d profiles, want 0", len(profiles))
	}
	if _, err := store.Get("gone"); !errors.HasCode(err, errors.ExitProfileNotFound) {
		t.Errorf("Get error = %v, want not found", err)
	}
}

func TestStore_LoadAll_MissingDir(t *testing.T) {
	store := NewStore("/nowhere", WithFileSystem(system.NewMockFS()))

	profiles, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("LoadAll = %d profiles, want 0", len(profiles))
	}
}

func TestStore_LoadAll_ReadDirError(t *testing.T) {
	mockFS := system.NewMockFS()
	mockFS.ReadDirErr = fs.ErrPermission
	store := NewStore(testDir, WithFileSystem(mockFS))

	if _, err := store.LoadAll(); !errors.HasCode(err, errors.ExitPersistence) {
		t.Errorf("LoadAll error = %v, want persistence error", err)
	}
}

func TestStore_Delete(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))
	if _, err := store.Add("MyProfile", testDoc(t, "example.com")); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	result, err := store.Delete("MyProfile")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if result.StorageWarning != nil {
		t.Errorf("StorageWarning = %v, want nil", result.StorageWarning)
	}
	if mockFS.Exists("/profiles/MyProfile.json") {
		t.Error("file should be removed")
	}
	if _, err := store.Get("MyProfile"); err == nil {
		t.Error("profile should be unregistered")
	}

	if _, err := store.Delete("MyProfile"); !errors.HasCode(err, errors.ExitProfileNotFound) {
		t.Errorf("second Delete error = %v, want not found", err)
	}
}

func TestStore_Delete_StorageWarning(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))
	if _, err := store.Add("MyProfile", testDoc(t, "example.com")); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	mockFS.RemoveErr = fs.ErrPermission

	result, err := store.Delete("MyProfile")
	if err != nil {
		t.Fatalf("Delete error = %v, want nil", err)
	}
	if result.StorageWarning == nil {
		t.Fatal("StorageWarning should be set")
	}
	if !errors.Is(result.StorageWarning, fs.ErrPermission) {
		t.Errorf("StorageWarning = %v, want to wrap ErrPermission", result.StorageWarning)
	}
	if _, err := store.Get("MyProfile"); err == nil {
		t.Error("registry entry should be removed even when the file is not")
	}
}

func TestStore_Delete_FileAlreadyMissing(t *testing.T) {
	mockFS := system.NewMockFS()
	store := NewStore(testDir, WithFileSystem(mockFS))
	p, err := store.Add("MyProfile", testDoc(t, "example.com"))
	if err != nil {
		t.Fatalf("Add error: %v", err)
	}
	mockFS.Remove(p.Path)

	result, err := store.Delete("MyProfile")
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if result.StorageWarning != nil {
		t.Errorf("StorageWarning = %v, want nil for a missing file", result.StorageWarning)
	}
}

func TestStore_GetSanitizes(t *testing.T) {
	store := NewStore(testDir, WithFileSystem(system.NewMockFS()))
	if _, err := store.Add("Frankfurt #2", testDoc(t, "example.com")); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	p, err := store.Get("Frankfurt #2")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if p.Name != "Frankfurt 2" {
		t.Errorf("Name = %q, want %q", p.Name, "Frankfurt 2")
	}
}

func TestStore_RealFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	store := NewStore(dir)

	if _, err := store.Add("Home", testDoc(t, "example.com")); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Home.json")); err != nil {
		t.Fatalf("profile file missing: %v", err)
	}

	reloaded := NewStore(dir)
	profiles, err := reloaded.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "Home" {
		t.Fatalf("LoadAll = %v, want [Home]", profiles)
	}

	ep, err := engineconf.EndpointOf(profiles[0].Config, profiles[0].Name)
	if err != nil {
		t.Fatalf("EndpointOf error: %v", err)
	}
	if ep.Host != "example.com" || ep.PublicKey != "KEY" {
		t.Errorf("reconstructed endpoint = %+v", ep)
	}

	if _, err := reloaded.Delete("Home"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Home.json")); !os.IsNotExist(err) {
		t.Errorf("file should be removed, stat err = %v", err)
	}
}

func TestStore_Path(t *testing.T) {
	store := NewStore(testDir)

	path, err := store.Path("a/../b")
	if err != nil {
		t.Fatalf("Path error: %v", err)
	}
	if path != "/profiles/ab.json" {
		t.Errorf("Path = %q, want %q", path, "/profiles/ab.json")
	}

	if _, err := store.Path(".."); !errors.HasCode(err, errors.ExitFormat) {
		t.Errorf("Path(..) error = %v, want format error", err)
	}
}
