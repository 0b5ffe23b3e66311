package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

func testRecord(status string) *Record {
	return &Record{
		Status:          status,
		Reason:          "safe",
		OverallScore:    1.0,
		RuleScore:       1.0,
		LLMScore:        1.0,
		AnalysisSummary: "Content analysis completed. No security issues detected.",
		SecurityLevel:   "high",
		Kind:            "text",
		CachedAt:        time.Now().UTC(),
	}
}

var _ = Describe("MemoryStore", func() {
	var (
		store *MemoryStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = NewMemoryStore(MemoryConfig{MaxEntries: 3}, true)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Context("basic operations", func() {
		It("should store and retrieve a record", func() {
			rec := testRecord("safe")
			Expect(store.Set(ctx, "key1", rec, time.Minute)).To(Succeed())

			got, err := store.Get(ctx, "key1")
			Expect(err).ToNot(HaveOccurred())
			Expect(got.Status).To(Equal("safe"))
			Expect(got.OverallScore).To(Equal(1.0))
		})

		It("should return ErrNotFound for a missing key", func() {
			_, err := store.Get(ctx, "absent")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should reject empty keys and nil records", func() {
			_, err := store.Get(ctx, "")
			Expect(err).To(MatchError(ErrInvalidInput))

			Expect(store.Set(ctx, "", testRecord("safe"), time.Minute)).To(MatchError(ErrInvalidInput))
			Expect(store.Set(ctx, "key", nil, time.Minute)).To(MatchError(ErrInvalidInput))
		})

		It("should return a copy that callers cannot mutate", func() {
			Expect(store.Set(ctx, "key1", testRecord("safe"), time.Minute)).To(Succeed())

			got, err := store.Get(ctx, "key1")
			Expect(err).ToNot(HaveOccurred())
			got.Status = "tampered"

			again, err := store.Get(ctx, "key1")
			Expect(err).ToNot(HaveOccurred())
			Expect(again.Status).To(Equal("safe"))
		})
	})

	Context("TTL expiry", func() {
		It("should expire entries after their TTL", func() {
			Expect(store.Set(ctx, "short", testRecord("safe"), 10*time.Millisecond)).To(Succeed())

			time.Sleep(30 * time.Millisecond)

			_, err := store.Get(ctx, "short")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("should keep entries within their TTL", func() {
			Expect(store.Set(ctx, "long", testRecord("safe"), time.Hour)).To(Succeed())

			_, err := store.Get(ctx, "long")
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Context("LRU eviction", func() {
		It("should evict the least recently used entry at capacity", func() {
			Expect(store.Set(ctx, "a", testRecord("safe"), time.Hour)).To(Succeed())
			time.Sleep(time.Millisecond)
			Expect(store.Set(ctx, "b", testRecord("safe"), time.Hour)).To(Succeed())
			time.Sleep(time.Millisecond)
			Expect(store.Set(ctx, "c", testRecord("safe"), time.Hour)).To(Succeed())
			time.Sleep(time.Millisecond)

			// Touch "a" so "b" becomes the oldest.
			_, err := store.Get(ctx, "a")
			Expect(err).ToNot(HaveOccurred())
			time.Sleep(time.Millisecond)

			Expect(store.Set(ctx, "d", testRecord("safe"), time.Hour)).To(Succeed())
			Expect(store.EntryCount()).To(Equal(3))

			_, err = store.Get(ctx, "b")
			Expect(err).To(MatchError(ErrNotFound))
			_, err = store.Get(ctx, "a")
			Expect(err).ToNot(HaveOccurred())
		})

		It("should not evict when overwriting an existing key", func() {
			Expect(store.Set(ctx, "a", testRecord("safe"), time.Hour)).To(Succeed())
			Expect(store.Set(ctx, "b", testRecord("safe"), time.Hour)).To(Succeed())
			Expect(store.Set(ctx, "c", testRecord("safe"), time.Hour)).To(Succeed())

			Expect(store.Set(ctx, "b", testRecord("unsafe"), time.Hour)).To(Succeed())
			Expect(store.EntryCount()).To(Equal(3))
		})
	})

	Context("flush and stats", func() {
		It("should remove every entry on flush", func() {
			Expect(store.Set(ctx, "a", testRecord("safe"), time.Hour)).To(Succeed())
			Expect(store.Set(ctx, "b", testRecord("safe"), time.Hour)).To(Succeed())

			Expect(store.Flush(ctx)).To(Succeed())
			Expect(store.EntryCount()).To(Equal(0))
		})

		It("should count hits and misses", func() {
			Expect(store.Set(ctx, "a", testRecord("safe"), time.Hour)).To(Succeed())

			_, _ = store.Get(ctx, "a")
			_, _ = store.Get(ctx, "a")
			_, _ = store.Get(ctx, "missing")

			stats, err := store.Stats(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(stats.Backend).To(Equal("memory"))
			Expect(stats.Connected).To(BeTrue())
			Expect(stats.Entries).To(Equal(int64(1)))
			Expect(stats.Hits).To(Equal(int64(2)))
			Expect(stats.Misses).To(Equal(int64(1)))
		})
	})
})

var _ = Describe("Disabled store", func() {
	var (
		store *MemoryStore
		ctx   context.Context
	)

	BeforeEach(func() {
		store = NewMemoryStore(MemoryConfig{}, false)
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("should report disabled", func() {
		Expect(store.IsEnabled()).To(BeFalse())
		Expect(store.CheckConnection(ctx)).To(MatchError(ErrStoreDisabled))
	})

	It("should refuse reads and writes", func() {
		_, err := store.Get(ctx, "key")
		Expect(err).To(MatchError(ErrStoreDisabled))
		Expect(store.Set(ctx, "key", testRecord("safe"), time.Minute)).To(MatchError(ErrStoreDisabled))
	})
})

var _ = Describe("NewStore", func() {
	It("should build a memory store", func() {
		store, err := NewStore(StoreConfig{Backend: MemoryBackend, Enabled: true})
		Expect(err).ToNot(HaveOccurred())
		Expect(store.IsEnabled()).To(BeTrue())
		Expect(store.Close()).To(Succeed())
	})

	It("should build a disabled store when caching is off", func() {
		store, err := NewStore(StoreConfig{Backend: RedisBackend, Enabled: false})
		Expect(err).ToNot(HaveOccurred())
		Expect(store.IsEnabled()).To(BeFalse())
		Expect(store.Close()).To(Succeed())
	})

	It("should reject unknown backends", func() {
		_, err := NewStore(StoreConfig{Backend: "etcd", Enabled: true})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Fingerprint", func() {
	It("should encode kind, level and content digest", func() {
		key := Fingerprint("text", "high", []byte("hello"))
		Expect(key).To(HavePrefix("validation:text:high:"))

		digest := strings.TrimPrefix(key, "validation:text:high:")
		Expect(digest).To(HaveLen(64))
	})

	It("should separate keys by every parameter", func() {
		base := Fingerprint("text", "high", []byte("hello"))
		Expect(Fingerprint("document", "high", []byte("hello"))).ToNot(Equal(base))
		Expect(Fingerprint("text", "low", []byte("hello"))).ToNot(Equal(base))
		Expect(Fingerprint("text", "high", []byte("other"))).ToNot(Equal(base))
	})

	It("should be stable for identical input", func() {
		Expect(Fingerprint("text", "high", []byte("hello"))).
			To(Equal(Fingerprint("text", "high", []byte("hello"))))
	})
})
