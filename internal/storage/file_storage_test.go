// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type testPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()

	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}
	return fs
}

func TestSaveAndLoadJSONFile(t *testing.T) {
	fs := newTestStorage(t)

	saved := testPayload{Name: "hospital", Count: 3}
	if err := fs.SaveJSONFile("breakdowns", "demo.json", saved); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	var loaded testPayload
	if err := fs.LoadJSONFile("breakdowns", "demo.json", &loaded); err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if !reflect.DeepEqual(saved, loaded) {
		t.Errorf("读出 %+v, want %+v", loaded, saved)
	}
}

func TestLoadMissingFile(t *testing.T) {
	fs := newTestStorage(t)

	var target testPayload
	if err := fs.LoadJSONFile("breakdowns", "missing.json", &target); err == nil {
		t.Error("读取不存在的文件应返回错误")
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveJSONFile("analyses", "a.json", testPayload{Name: "x"}); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(fs.BaseDir, "analyses"))
	if err != nil {
		t.Fatalf("读目录失败: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("发现残留临时文件: %s", entry.Name())
		}
	}
}

func TestListJSONFiles(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveJSONFile("breakdowns", "b.json", testPayload{}); err != nil {
		t.Fatal(err)
	}
	if err := fs.SaveJSONFile("breakdowns", "a.json", testPayload{}); err != nil {
		t.Fatal(err)
	}

	names, err := fs.ListJSONFiles("breakdowns")
	if err != nil {
		t.Fatalf("列出失败: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("names = %v, want [a b]", names)
	}
}

func TestListMissingDirectory(t *testing.T) {
	fs := newTestStorage(t)

	names, err := fs.ListJSONFiles("nonexistent")
	if err != nil {
		t.Fatalf("不存在的目录不应报错: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want 空", names)
	}
}

func TestDeleteFile(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveJSONFile("breakdowns", "gone.json", testPayload{}); err != nil {
		t.Fatal(err)
	}
	if err := fs.DeleteFile("breakdowns", "gone.json"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if fs.FileExists("breakdowns", "gone.json") {
		t.Error("文件删除后仍存在")
	}

	// 删除已不存在的文件不报错
	if err := fs.DeleteFile("breakdowns", "gone.json"); err != nil {
		t.Errorf("重复删除应静默: %v", err)
	}
}

func TestCacheInvalidatedOnSave(t *testing.T) {
	fs := newTestStorage(t)

	if err := fs.SaveJSONFile("breakdowns", "c.json", testPayload{Count: 1}); err != nil {
		t.Fatal(err)
	}

	var first testPayload
	if err := fs.LoadJSONFile("breakdowns", "c.json", &first); err != nil {
		t.Fatal(err)
	}

	// 第二次保存后必须读到新内容而非缓存
	if err := fs.SaveJSONFile("breakdowns", "c.json", testPayload{Count: 2}); err != nil {
		t.Fatal(err)
	}

	var second testPayload
	if err := fs.LoadJSONFile("breakdowns", "c.json", &second); err != nil {
		t.Fatal(err)
	}
	if second.Count != 2 {
		t.Errorf("Count = %d, want 2（缓存未失效）", second.Count)
	}
}
