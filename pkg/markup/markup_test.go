/*
 * Copyright 2025 The Redline Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package markup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-team/redline/pkg/markup"
)

func TestRender(t *testing.T) {
	t.Run("bold test", func(t *testing.T) {
		assert.Equal(t, "please <strong>do</strong> this", markup.Render("please **do** this"))
	})

	t.Run("italic test", func(t *testing.T) {
		assert.Equal(t, "<em>maybe</em> later", markup.Render("*maybe* later"))
	})

	t.Run("inline code test", func(t *testing.T) {
		assert.Equal(t, "rename <code>foo()</code>", markup.Render("rename `foo()`"))
	})

	t.Run("code suppresses markup test", func(t *testing.T) {
		assert.Equal(t, "<code>**not bold**</code>", markup.Render("`**not bold**`"))
	})

	t.Run("mention test", func(t *testing.T) {
		assert.Equal(
			t,
			`ping <span class="mention" data-user="alice">@alice</span> here`,
			markup.Render("ping @alice here"),
		)
	})

	t.Run("unclosed markers are literal test", func(t *testing.T) {
		assert.Equal(t, "**dangling", markup.Render("**dangling"))
		assert.Equal(t, "*dangling", markup.Render("*dangling"))
		assert.Equal(t, "`dangling", markup.Render("`dangling"))
	})

	t.Run("html is escaped test", func(t *testing.T) {
		assert.Equal(t, "&lt;script&gt;", markup.Render("<script>"))
		assert.Equal(t, "<strong>a &amp; b</strong>", markup.Render("**a & b**"))
	})

	t.Run("bold before italic test", func(t *testing.T) {
		assert.Equal(t, "<strong>x</strong> and <em>y</em>", markup.Render("**x** and *y*"))
	})
}

func TestMentions(t *testing.T) {
	t.Run("extracts in order test", func(t *testing.T) {
		assert.Equal(t, []string{"bob", "alice"}, markup.Mentions("@bob ask @alice, then @bob again"))
	})

	t.Run("ignores mentions in code test", func(t *testing.T) {
		assert.Equal(t, []string{"carol"}, markup.Mentions("`@ignored` but @carol"))
	})

	t.Run("no mentions test", func(t *testing.T) {
		assert.Nil(t, markup.Mentions("plain text @ nothing"))
	})
}
