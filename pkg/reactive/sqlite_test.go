package reactive

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/nimburion/asyncrepo/pkg/observability/logger"
	"github.com/nimburion/asyncrepo/pkg/repository"
	"github.com/nimburion/asyncrepo/pkg/store/sqldb"
	"github.com/nimburion/asyncrepo/pkg/store/sqlite"
)

type product struct {
	ID     int64  `db:"id"`
	Name   string `db:"name"`
	Price  int64  `db:"price"`
	Status string `db:"status"`
}

type productName struct {
	Name  string `db:"name"`
	Price string `db:"price"`
}

func newProductService(t *testing.T) (*Service[product, int64], *sqldb.Adapter) {
	t.Helper()

	adapter, err := sqlite.NewSQLiteAdapter(sqldb.Config{URL: ":memory:"}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	_, err = adapter.ExecContext(context.Background(), `CREATE TABLE products (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		name   TEXT NOT NULL UNIQUE,
		price  INTEGER NOT NULL,
		status TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	mapper := repository.NewSQLMapper[product, int64](adapter, adapter.Dialect(), "products", "id",
		repository.NewReflectionMapper[product, int64]("ID"))
	return NewService[product, int64](mapper, adapter, Config{DefaultBatchSize: 4}, nil, nil), adapter
}

func products(n int) []product {
	out := make([]product, n)
	for i := range out {
		status := "active"
		if i%2 == 1 {
			status = "archived"
		}
		out[i] = product{Name: fmt.Sprintf("p%02d", i+1), Price: int64((i + 1) * 10), Status: status}
	}
	return out
}

func seedProducts(t *testing.T, svc *Service[product, int64], n int) []product {
	t.Helper()
	entities := products(n)
	outcomes, err := svc.SaveBatch(entities).Collect(context.Background())
	if err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	if len(outcomes) != n {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), n)
	}
	return entities
}

func TestSQLite_SaveBatchAssignsIDs(t *testing.T) {
	svc, _ := newProductService(t)
	entities := seedProducts(t, svc, 10)

	for i, e := range entities {
		if e.ID != int64(i+1) {
			t.Fatalf("entity %d has id %d", i, e.ID)
		}
	}
	total, err := svc.Count(nil).Block(context.Background())
	if err != nil || total != 10 {
		t.Fatalf("Count() = %d, %v", total, err)
	}
}

// note is keyed on a plain int to cover generated keys narrower than int64
type note struct {
	ID   int    `db:"id"`
	Body string `db:"body"`
}

func TestSQLite_IntIDsAreAssigned(t *testing.T) {
	adapter, err := sqlite.NewSQLiteAdapter(sqldb.Config{URL: ":memory:"}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })
	ctx := context.Background()
	if _, err := adapter.ExecContext(ctx, `CREATE TABLE notes (id INTEGER PRIMARY KEY AUTOINCREMENT, body TEXT NOT NULL)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	mapper := repository.NewSQLMapper[note, int](adapter, adapter.Dialect(), "notes", "id",
		repository.NewReflectionMapper[note, int]("ID"))
	svc := NewService[note, int](mapper, adapter, Config{DefaultBatchSize: 2}, nil, nil)

	first := &note{Body: "first"}
	if ok, err := svc.Save(first).Block(ctx); err != nil || !ok {
		t.Fatalf("Save() = %v, %v", ok, err)
	}
	if first.ID != 1 {
		t.Fatalf("saved note id = %d, want 1", first.ID)
	}

	batch := []note{{Body: "second"}, {Body: "third"}, {Body: "fourth"}}
	if _, err := svc.SaveBatch(batch).Collect(ctx); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}
	for i, n := range batch {
		if n.ID != i+2 {
			t.Fatalf("batch note %d has id %d, want %d", i, n.ID, i+2)
		}
	}

	got, err := svc.GetByID(3).Block(ctx)
	if err != nil || got.Body != "third" {
		t.Fatalf("GetByID(3) = %+v, %v", got, err)
	}
}

func TestSQLite_FailedChunkRollsBackAlone(t *testing.T) {
	svc, _ := newProductService(t)
	entities := products(10)
	entities[9].Name = entities[0].Name

	var outcomes int
	var terminal error
	for _, err := range svc.SaveBatch(entities).All(context.Background()) {
		if err != nil {
			terminal = err
			continue
		}
		outcomes++
	}
	if terminal == nil || outcomes != 8 {
		t.Fatalf("outcomes = %d, err = %v", outcomes, terminal)
	}

	total, err := svc.Count(nil).Block(context.Background())
	if err != nil || total != 8 {
		t.Fatalf("Count() = %d, %v; the third chunk must roll back as a whole", total, err)
	}
	exists, err := svc.ExistsWhere(repository.Eq("name", "p09")).Block(context.Background())
	if err != nil || exists {
		t.Fatalf("p09 exists = %v, %v", exists, err)
	}
}

func TestSQLite_ReadOperations(t *testing.T) {
	svc, _ := newProductService(t)
	seedProducts(t, svc, 10)
	ctx := context.Background()

	active, err := svc.CountWhere(repository.Eq("status", "active")).Block(ctx)
	if err != nil || active != 5 {
		t.Fatalf("CountWhere() = %d, %v", active, err)
	}

	p, err := svc.GetByID(3).Block(ctx)
	if err != nil || p.Name != "p03" {
		t.Fatalf("GetByID(3) = %+v, %v", p, err)
	}
	if _, err := svc.GetByID(99).Block(ctx); !errors.Is(err, ErrEmpty) {
		t.Fatalf("GetByID(99) err = %v, want ErrEmpty", err)
	}

	for _, tt := range []struct {
		name string
		want bool
	}{{"p04", true}, {"nope", false}} {
		got, err := svc.ExistsWhere(repository.Eq("name", tt.name)).Block(ctx)
		if err != nil || got != tt.want {
			t.Fatalf("ExistsWhere(%s) = %v, %v", tt.name, got, err)
		}
	}

	listed, err := svc.ListWhere(repository.Ge("price", 80)).Collect(ctx)
	if err != nil || len(listed) != 3 {
		t.Fatalf("ListWhere() = %v, %v", listed, err)
	}

	byIDs, err := svc.ListOnceByIDs([]int64{1, 2, 42}).Block(ctx)
	if err != nil || len(byIDs) != 2 {
		t.Fatalf("ListOnceByIDs() = %v, %v", byIDs, err)
	}

	view, err := GetOneAs[productName](svc, repository.NewQuery().Select("name", "price").Where(repository.Eq("id", 2))).Block(ctx)
	if err != nil || view != (productName{Name: "p02", Price: "20"}) {
		t.Fatalf("GetOneAs() = %+v, %v", view, err)
	}

	maxPrice, err := GetObjectAs[string](svc, repository.NewQuery().Select("price").OrderBy("price", true)).Block(ctx)
	if err != nil || maxPrice != "100" {
		t.Fatalf("GetObjectAs() = %q, %v", maxPrice, err)
	}

	ids, err := GetObjectListOnceAs[int](svc, repository.NewQuery().Select("id").Where(repository.Le("id", 3)).OrderBy("id", false)).Block(ctx)
	if err != nil || !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Fatalf("GetObjectListOnceAs() = %v, %v", ids, err)
	}

	names, err := ListAs[productName](svc, repository.NewQuery().Select("name", "price").Where(repository.Eq("status", "archived"))).Collect(ctx)
	if err != nil || len(names) != 5 {
		t.Fatalf("ListAs() = %v, %v", names, err)
	}
}

func TestSQLite_Page(t *testing.T) {
	svc, _ := newProductService(t)
	seedProducts(t, svc, 10)
	ctx := context.Background()

	query := repository.NewQuery().OrderBy("id", false)
	page := repository.NewPage[product](2, 3)

	got, err := svc.Page(page, query, true).Collect(ctx)
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	var gotIDs []int64
	for _, p := range got {
		gotIDs = append(gotIDs, p.ID)
	}
	if !reflect.DeepEqual(gotIDs, []int64{4, 5, 6}) {
		t.Fatalf("ids = %v", gotIDs)
	}
	if page.TotalRow != 10 || page.TotalPage != 4 || !page.HasNext() {
		t.Fatalf("page = %+v", page)
	}
	if query.LimitRows() != nil || query.LimitOffset() != nil {
		t.Fatal("query bounds leaked")
	}

	once, err := svc.PageOnce(repository.NewPage[product](4, 3), query).Block(ctx)
	if err != nil || len(once.Records) != 1 || once.Records[0].ID != 10 || once.HasNext() {
		t.Fatalf("PageOnce() = %+v, %v", once, err)
	}

	asPage, err := PageOnceAs[productName](svc, repository.NewPage[productName](1, 4),
		repository.NewQuery().Select("name", "price").Where(repository.Eq("status", "active")).OrderBy("id", false)).Block(ctx)
	if err != nil || asPage.TotalRow != 5 || len(asPage.Records) != 4 || asPage.Records[0].Name != "p01" {
		t.Fatalf("PageOnceAs() = %+v, %v", asPage, err)
	}
}

func TestSQLite_Writes(t *testing.T) {
	svc, _ := newProductService(t)
	seedProducts(t, svc, 6)
	ctx := context.Background()

	extra := product{Name: "extra", Price: 1, Status: "active"}
	if ok, err := svc.Save(&extra).Block(ctx); err != nil || !ok || extra.ID != 7 {
		t.Fatalf("Save() = %v, %v, id %d", ok, err, extra.ID)
	}

	extra.Price = 2
	if ok, err := svc.SaveOrUpdate(&extra).Block(ctx); err != nil || !ok {
		t.Fatalf("SaveOrUpdate() = %v, %v", ok, err)
	}
	reloaded, err := svc.GetByEntityID(&extra).Block(ctx)
	if err != nil || reloaded.Price != 2 {
		t.Fatalf("GetByEntityID() = %+v, %v", reloaded, err)
	}

	ok, err := svc.UpdateChain().Set("price", 0).Where(repository.Eq("status", "archived")).Update().Block(ctx)
	if err != nil || !ok {
		t.Fatalf("UpdateChain().Update() = %v, %v", ok, err)
	}
	free, err := svc.CountWhere(repository.Eq("price", 0)).Block(ctx)
	if err != nil || free != 3 {
		t.Fatalf("free = %d, %v", free, err)
	}

	remove, err := svc.RemoveByMap(map[string]any{"status": "archived"})
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := remove.Block(ctx); err != nil || !ok {
		t.Fatalf("RemoveByMap() = %v, %v", ok, err)
	}
	if ok, err := svc.RemoveByIDs([]int64{1, 3}).Block(ctx); err != nil || !ok {
		t.Fatalf("RemoveByIDs() = %v, %v", ok, err)
	}
	if ok, err := svc.RemoveByID(1).Block(ctx); err != nil || ok {
		t.Fatalf("RemoveByID(1) twice = %v, %v", ok, err)
	}

	remaining, err := svc.List(nil).Collect(ctx)
	if err != nil || len(remaining) != 2 {
		t.Fatalf("remaining = %+v, %v", remaining, err)
	}
}
