package cowstring_test

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/clapdb/memory/pkg/arena"
	"github.com/clapdb/memory/pkg/cowstring"
)

func TestString_CategorySelection(t *testing.T) {
	Convey("Given strings of increasing size", t, func() {
		small := cowstring.New(cowstring.Heap, "short")
		medium := cowstring.New(cowstring.Heap, strings.Repeat("m", 100))
		large := cowstring.New(cowstring.Heap, strings.Repeat("l", 1000))

		Convey("Each reports its own contents back exactly", func() {
			So(small.String(), ShouldEqual, "short")
			So(medium.String(), ShouldEqual, strings.Repeat("m", 100))
			So(large.String(), ShouldEqual, strings.Repeat("l", 1000))
		})

		Convey("And sizes match what was stored", func() {
			So(small.Len(), ShouldEqual, 5)
			So(medium.Len(), ShouldEqual, 100)
			So(large.Len(), ShouldEqual, 1000)
		})
	})
}

func TestString_CopySharesLargeBuffers(t *testing.T) {
	Convey("Given a large String", t, func() {
		original := cowstring.New(cowstring.Heap, strings.Repeat("x", 1000))

		Convey("Copy shares storage until mutated", func() {
			var copied cowstring.String
			copied.Copy(original)
			So(copied.String(), ShouldEqual, original.String())

			Convey("Appending to the copy does not affect the original", func() {
				copied.AppendString("tail")
				So(copied.String(), ShouldNotEqual, original.String())
				So(original.Len(), ShouldEqual, 1000)
			})
		})
	})
}

func TestString_CloneNeverShares(t *testing.T) {
	original := cowstring.New(cowstring.Heap, strings.Repeat("y", 1000))
	clone := original.Clone()

	clone.AppendString("more")
	require.Equal(t, strings.Repeat("y", 1000), original.String())
	require.Equal(t, strings.Repeat("y", 1000)+"more", clone.String())
}

func TestString_AppendGrowsAcrossCategories(t *testing.T) {
	s := cowstring.New(cowstring.Heap, "ab")
	s.AppendString("cd")
	require.Equal(t, "abcd", s.String())

	s.AppendString(strings.Repeat("z", 300))
	require.Equal(t, 304, s.Len())
	require.Equal(t, "abcd"+strings.Repeat("z", 300), s.String())
}

func TestString_InsertEraseReplace(t *testing.T) {
	Convey("Given a small String", t, func() {
		s := cowstring.New(cowstring.Heap, "hello world")

		Convey("Insert splices in the middle", func() {
			s.Insert(5, []byte(","))
			So(s.String(), ShouldEqual, "hello, world")
		})

		Convey("Erase removes a range", func() {
			s.Erase(5, 6)
			So(s.String(), ShouldEqual, "hello")
		})

		Convey("Replace substitutes a range", func() {
			s.Replace(0, 5, []byte("goodbye"))
			So(s.String(), ShouldEqual, "goodbye world")
		})
	})
}

func TestString_FindFamily(t *testing.T) {
	s := cowstring.New(cowstring.Heap, "the quick brown fox")

	require.Equal(t, 4, s.Find([]byte("quick"), 0))
	require.Equal(t, -1, s.Find([]byte("slow"), 0))
	require.Equal(t, 16, s.RFind([]byte("fox"), s.Len()))
	require.True(t, s.StartsWith([]byte("the")))
	require.True(t, s.EndsWith([]byte("fox")))
	require.True(t, s.Contains([]byte("brown")))
}

func TestString_ShrinkToSize(t *testing.T) {
	s := cowstring.New(cowstring.Heap, "hello world")
	s.ShrinkToSize(5)
	require.Equal(t, "hello", s.String())
}

func TestString_ArenaBacked(t *testing.T) {
	Convey("Given an arena-backed String", t, func() {
		a := arena.New(arena.Config{})
		defer a.Destroy()
		ad := arena.NewAdaptor(a)

		s := cowstring.New(ad, strings.Repeat("q", 500))

		Convey("It behaves the same as a heap-backed one", func() {
			So(s.String(), ShouldEqual, strings.Repeat("q", 500))
			s.AppendString("tail")
			So(s.String(), ShouldEqual, strings.Repeat("q", 500)+"tail")
		})
	})
}

func TestString_SelfAppendDoesNotCorrupt(t *testing.T) {
	s := cowstring.New(cowstring.Heap, "ab")
	s.Append(s.Bytes())
	require.Equal(t, "abab", s.String())
}
