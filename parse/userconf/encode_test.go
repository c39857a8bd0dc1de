package userconf

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestMarshal(t *testing.T) {
	convey.Convey("marshal", t, func() {
		doc, err := ParseString("a 1\nb {c [x, y]}\nd []\ne {}")
		convey.So(err, convey.ShouldBeNil)

		out, err := Marshal(doc)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(out), convey.ShouldEqual, "a 1\nb {\n\tc [\n\t\tx\n\t\ty\n\t]\n}\nd []\ne {}\n")

		convey.Convey("custom indent", func() {
			var buf bytes.Buffer
			enc := NewEncoder(&buf)
			enc.SetIndent("  ")
			convey.So(enc.Encode(doc), convey.ShouldBeNil)
			convey.So(buf.String(), convey.ShouldContainSubstring, "b {\n  c [\n    x\n")
		})

		convey.Convey("single values", func() {
			out, err := MarshalValue(NewString("a b"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, "\"a b\"\n")

			out, err = MarshalValue(NewArray(NewString("x"), NewRecord(Field{Key: "k", Value: NewString("v")})))
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, "[\n\tx\n\t{\n\t\tk v\n\t}\n]\n")
		})

		convey.Convey("empty document", func() {
			out, err := Marshal(NewRecord())
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, "")
		})
	})
}

func TestQuote(t *testing.T) {
	convey.Convey("quote", t, func() {
		convey.So(Quote("plain"), convey.ShouldEqual, "plain")
		convey.So(Quote(`back\slash`), convey.ShouldEqual, `back\slash`)
		convey.So(Quote("0.0.0.0:8080"), convey.ShouldEqual, "0.0.0.0:8080")
		convey.So(Quote(""), convey.ShouldEqual, `""`)
		convey.So(Quote("a b"), convey.ShouldEqual, `"a b"`)
		convey.So(Quote(">quoted"), convey.ShouldEqual, `">quoted"`)
		convey.So(Quote("semi;colon"), convey.ShouldEqual, `"semi;colon"`)
		convey.So(Quote(`say "hi"`), convey.ShouldEqual, `"say \"hi\""`)
		convey.So(Quote("line\nnext\ttab"), convey.ShouldEqual, `"line\nnext\ttab"`)
		convey.So(QuoteString(`a\b`), convey.ShouldEqual, `"a\u005Cb"`)
		convey.So(QuoteString("bell\x07"), convey.ShouldEqual, `"bell\u0007"`)
		convey.So(Quote("bad\xffbyte"), convey.ShouldEqual, "\"bad\uFFFDbyte\"")
	})
}

func TestRoundTrip(t *testing.T) {
	convey.Convey("parse(marshal(parse(doc))) equals parse(doc)", t, func() {
		docs := []string{
			"",
			"a 1",
			`name "edge proxy"` + "\nempty \"\"\nraw back\\slash\n",
			"motd >Welcome\\n\n     >bye ; not a comment\n",
			`"spaced key" v, ">gt" w, "" blank`,
			"ctrl \"\\u0001\\u001F\\t\\\"\"\nunicode \"ключ 日本 \\u00e9\"",
			"nested { a [1, [2, 3], {b c}], d {}, e [] }",
			"dup 1\ndup 2",
			"list [\n\t\"{\", \"}\", \"[\", \"]\", \",\", \";\", \">\"\n]",
		}
		for _, src := range docs {
			first, err := ParseString(src)
			convey.So(err, convey.ShouldBeNil)

			out, err := Marshal(first)
			convey.So(err, convey.ShouldBeNil)

			second, err := Parse(out)
			convey.So(err, convey.ShouldBeNil)
			convey.So(Equal(first, second), convey.ShouldBeTrue)
			convey.So(second.Keys(), convey.ShouldResemble, first.Keys())
		}
	})
}

func TestEqual(t *testing.T) {
	convey.Convey("structural equality", t, func() {
		a, _ := ParseString("x 1, y [a, b]")
		b, _ := ParseString("y [a, b], x 1")
		c, _ := ParseString("x 1, y [b, a]")
		convey.So(Equal(a, b), convey.ShouldBeTrue)
		convey.So(Equal(a, c), convey.ShouldBeFalse)
		convey.So(Equal(NewString("1"), NewArray(NewString("1"))), convey.ShouldBeFalse)
		convey.So(Equal(NewRecord(), NewRecord(Field{Key: "k", Value: NewString("")})), convey.ShouldBeFalse)
		convey.So(Equal(nil, nil), convey.ShouldBeTrue)
	})
}

func TestMarshalJSON(t *testing.T) {
	convey.Convey("json keeps document order", t, func() {
		doc, err := ParseString("z 1\na [x, {k v}]\nm {}\nn []")
		convey.So(err, convey.ShouldBeNil)
		out, err := json.Marshal(doc)
		convey.So(err, convey.ShouldBeNil)
		convey.So(string(out), convey.ShouldEqual, `{"z":"1","a":["x",{"k":"v"}],"m":{},"n":[]}`)
	})
}
