package formatter

import (
	"testing"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Profile struct {
	Name string
	Age  int
}

// profileV0 is the first schema: the name only
type profileV0 struct{ t *wire.Table }

func newProfileV0(b *Builder) (Formatter[Profile], error) {
	return profileV0{t: b.Table()}, nil
}

func (f profileV0) Serialize(buf *buffer.Buffer, p Profile) error {
	WriteArrayHeader(buf, f.t, 1)
	WriteString(buf, f.t, p.Name)
	return nil
}

func (f profileV0) Deserialize(buf *buffer.Buffer) (Profile, error) {
	var p Profile
	n, err := ReadArrayHeader(buf, f.t)
	if err != nil {
		return p, err
	}
	if n != 1 {
		return p, malformed("profile v0 has 1 field, got %d", n)
	}
	p.Name, err = ReadString(buf, f.t)
	return p, err
}

func (f profileV0) GetLength(p Profile) int64 {
	return ArrayHeaderLength(1) + StringLength(len(p.Name))
}

func (f profileV0) DefaultLength() int64 { return ArrayHeaderLength(1) + 1 }

// profileV1 adds the age
type profileV1 struct{ t *wire.Table }

func newProfileV1(b *Builder) (Formatter[Profile], error) {
	return profileV1{t: b.Table()}, nil
}

func (f profileV1) Serialize(buf *buffer.Buffer, p Profile) error {
	WriteArrayHeader(buf, f.t, 2)
	WriteString(buf, f.t, p.Name)
	WriteInt(buf, f.t, int64(p.Age))
	return nil
}

func (f profileV1) Deserialize(buf *buffer.Buffer) (Profile, error) {
	var p Profile
	n, err := ReadArrayHeader(buf, f.t)
	if err != nil {
		return p, err
	}
	if n != 2 {
		return p, malformed("profile v1 has 2 fields, got %d", n)
	}
	if p.Name, err = ReadString(buf, f.t); err != nil {
		return p, err
	}
	age, err := ReadInt(buf, f.t)
	p.Age = int(age)
	return p, err
}

func (f profileV1) GetLength(p Profile) int64 {
	return ArrayHeaderLength(2) + StringLength(len(p.Name)) + IntLength(int64(p.Age))
}

func (f profileV1) DefaultLength() int64 { return ArrayHeaderLength(2) + 1 + 9 }

func versionedResolver(t *testing.T, policy VersionPolicy, ctors ...func(*Builder) (Formatter[Profile], error)) *Resolver {
	t.Helper()
	store := NewStore()
	for _, ctor := range ctors {
		require.NoError(t, AddVersion(store, ctor))
	}
	return NewResolver(store, WithVersionPolicy(policy))
}

func TestTaggedVersionsReadOldData(t *testing.T) {
	old := versionedResolver(t, TaggedVersions(), newProfileV0)
	current := versionedResolver(t, TaggedVersions(), newProfileV0, newProfileV1)

	data, err := Marshal(old, Profile{Name: "ada", Age: 36})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xcc, 0x00}, data[:2], "version 0 marker")

	got, err := Unmarshal[Profile](current, data)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "ada"}, got)

	// encoding always uses the newest version
	data, err = Marshal(current, Profile{Name: "ada", Age: 36})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xcc, 0x01}, data[:2])
	assert.Equal(t, Profile{Name: "ada", Age: 36}, roundTrip(t, current, Profile{Name: "ada", Age: 36}))
}

func TestTaggedVersionsRejectUnknownVersion(t *testing.T) {
	current := versionedResolver(t, TaggedVersions(), newProfileV0, newProfileV1)

	// data from a future version 5
	_, err := Unmarshal[Profile](current, []byte{0xcc, 0x05, 0xdc, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrUnknownVersion)

	_, err = Unmarshal[Profile](current, []byte{0xd9, 0x00})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestTrialVersionsFallBack(t *testing.T) {
	old := versionedResolver(t, TrialVersions(), newProfileV0)
	current := versionedResolver(t, TrialVersions(), newProfileV0, newProfileV1)

	data, err := Marshal(old, Profile{Name: "ada", Age: 36})
	require.NoError(t, err)
	assert.Equal(t, byte(0xdc), data[0], "no version marker")

	got, err := Unmarshal[Profile](current, data)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "ada"}, got)

	data, err = Marshal(current, Profile{Name: "bob", Age: 7})
	require.NoError(t, err)
	got, err = Unmarshal[Profile](current, data)
	require.NoError(t, err)
	assert.Equal(t, Profile{Name: "bob", Age: 7}, got)

	_, err = Unmarshal[Profile](current, []byte{0xdc, 0x00, 0x03, 0xc3, 0xc3, 0xc3})
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestVersionedTypeNestedInObject(t *testing.T) {
	type team struct {
		Lead    Profile
		Members []Profile
	}

	r := versionedResolver(t, TaggedVersions(), newProfileV0, newProfileV1)
	in := team{
		Lead:    Profile{Name: "ada", Age: 36},
		Members: []Profile{{Name: "bob", Age: 7}, {Name: "eve"}},
	}
	assert.Equal(t, in, roundTrip(t, r, in))
}

// profileRef is a versioned formatter for *Profile on top of profileV1
type profileRef struct{ v1 profileV1 }

func newProfileRef(b *Builder) (Formatter[*Profile], error) {
	return profileRef{v1: profileV1{t: b.Table()}}, nil
}

func (f profileRef) Serialize(buf *buffer.Buffer, p *Profile) error {
	return f.v1.Serialize(buf, *p)
}

func (f profileRef) Deserialize(buf *buffer.Buffer) (*Profile, error) {
	p, err := f.v1.Deserialize(buf)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (f profileRef) GetLength(p *Profile) int64 { return f.v1.GetLength(*p) }

func (f profileRef) DefaultLength() int64 { return f.v1.DefaultLength() }

func TestVersionedNil(t *testing.T) {
	for _, policy := range []VersionPolicy{TaggedVersions(), TrialVersions()} {
		t.Run(policy.Name(), func(t *testing.T) {
			r := versionedResolver(t, policy, newProfileV0, newProfileV1)
			got, err := Unmarshal[Profile](r, []byte{0xc0})
			require.NoError(t, err)
			assert.Equal(t, Profile{}, got)

			store := NewStore()
			require.NoError(t, AddVersion(store, newProfileRef))
			refs := NewResolver(store, WithVersionPolicy(policy))

			data, err := Marshal[*Profile](refs, nil)
			require.NoError(t, err)
			assert.Equal(t, []byte{0xc0}, data, "no version marker in front of nil")
			f, err := GetFormatter[*Profile](refs)
			require.NoError(t, err)
			assert.Equal(t, int64(1), f.GetLength(nil))

			ref, err := Unmarshal[*Profile](refs, []byte{0xc0})
			require.NoError(t, err)
			assert.Nil(t, ref)

			ref, err = Unmarshal[*Profile](refs, mustMarshal(t, refs, &Profile{Name: "ada", Age: 36}))
			require.NoError(t, err)
			require.NotNil(t, ref)
			assert.Equal(t, Profile{Name: "ada", Age: 36}, *ref)
		})
	}
}

func mustMarshal[T any](t *testing.T, r *Resolver, v T) []byte {
	t.Helper()
	data, err := Marshal(r, v)
	require.NoError(t, err)
	return data
}

type reading struct {
	Value int
	Unit  string
}

// readingV0 predates the unit
type readingV0 struct {
	Value int
}

type readingV1 reading

func TestConvertDescribesOldVersions(t *testing.T) {
	store := NewStore()
	require.NoError(t, AddVersion(store, func(b *Builder) (Formatter[reading], error) {
		f, err := Sub[readingV0](b)
		if err != nil {
			return nil, err
		}
		return Convert(f,
			func(r reading) readingV0 { return readingV0{Value: r.Value} },
			func(v readingV0) reading { return reading{Value: v.Value} },
		), nil
	}))
	require.NoError(t, AddVersion(store, func(b *Builder) (Formatter[reading], error) {
		f, err := Sub[readingV1](b)
		if err != nil {
			return nil, err
		}
		return Convert(f,
			func(r reading) readingV1 { return readingV1(r) },
			func(v readingV1) reading { return reading(v) },
		), nil
	}))

	r := NewResolver(store)
	assert.Equal(t, reading{Value: 5, Unit: "C"}, roundTrip(t, r, reading{Value: 5, Unit: "C"}))

	old := mustMarshal(t, NewResolver(nil), readingV0{Value: 7})
	got, err := Unmarshal[reading](r, append([]byte{0xcc, 0x00}, old...))
	require.NoError(t, err)
	assert.Equal(t, reading{Value: 7}, got)

	_, err = Unmarshal[reading](r, append([]byte{0xcc, 0x01}, old...))
	assert.ErrorIs(t, err, ErrMalformed, "a version 0 body under the version 1 marker")
}
